package firebase

import (
	"context"
	"fmt"
	"os"

	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/avatarstudio/avatarstudio/internal/usecase"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	_ "github.com/joho/godotenv/autoload"
	"google.golang.org/api/option"
)

func New(ctx context.Context) (*Firebase, error) {
	sa := option.WithCredentialsFile(os.Getenv(config.ENV_KEY_FIREBASE_SERVICE_ACCOUNT_KEY_PATH))
	app, err := fb.NewApp(ctx, nil, sa)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %w", err)
	}

	return &Firebase{auth: client}, nil
}

type Firebase struct {
	auth *auth.Client
}

// used by middleware
func (f *Firebase) VerifyIDToken(ctx context.Context, token string) (usecase.Identity, error) {
	t, err := f.auth.VerifyIDToken(ctx, token)
	if err != nil {
		return usecase.Identity{}, err
	}
	return identityFromClaims(t.UID, t.Claims), nil
}

func identityFromClaims(uid string, claims map[string]any) usecase.Identity {
	str := func(k string) string {
		v, _ := claims[k].(string)
		return v
	}
	return usecase.Identity{
		UID:     uid,
		Name:    str("name"),
		Email:   str("email"),
		Picture: str("picture"),
	}
}
