package usecase

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"html/template"
	"time"

	"github.com/skip2/go-qrcode"
)

type Email struct {
	To      []string
	From    string
	CC      []string
	BCC     []string
	Subject string
	Body    string
}

type GenerationEmailData struct {
	Title       string
	CurrentYear string
	UserName    string
	Kind        string
	Complete    bool
	ResultURL   string
	Reason      string
	QRCodeURL   string
}

func (u Usecase) sendGenerationEmail(ctx context.Context, st Status) error {
	user, err := u.repo.GetUserByID(ctx, *st.UserID)
	if err != nil {
		return err
	}
	if user.Email == "" {
		return nil
	}

	data := u.buildGenerationEmailData(user, st)
	body, err := buildGenerationEmailBody(data)
	if err != nil {
		return err
	}

	return u.mailer.SendEmail(ctx, Email{
		To:      []string{user.Email},
		From:    u.cfg.MailFrom,
		Subject: data.Title,
		Body:    body,
	})
}

func (u Usecase) buildGenerationEmailData(user User, st Status) GenerationEmailData {
	data := GenerationEmailData{
		CurrentYear: time.Now().Format("2006"),
		UserName:    user.Name,
		Kind:        string(st.Kind),
		Complete:    st.IsComplete(),
	}

	if st.IsComplete() {
		data.Title = "Your " + data.Kind + " is ready"
		data.ResultURL = *st.URL
		if png, err := qrcode.Encode(data.ResultURL, qrcode.Low, 128); err == nil {
			data.QRCodeURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
		}
		return data
	}

	data.Title = "Your " + data.Kind + " could not be generated"
	if st.FailureReason != nil {
		data.Reason = *st.FailureReason
	}
	return data
}

//go:embed templates/*
var templates embed.FS

func buildGenerationEmailBody(data GenerationEmailData) (string, error) {
	tmpl, err := template.
		New("base.html").
		Funcs(template.FuncMap{
			"safeURL": func(s string) template.URL {
				return template.URL(s)
			},
		}).
		ParseFS(
			templates,
			"templates/base.html",
			"templates/generation.html",
		)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
