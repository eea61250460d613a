package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-gomail/gomail"
)

// mailConfig holds SMTP settings read from the environment.
type mailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func mailConfigFromEnv() (mailConfig, error) {
	cfg := mailConfig{
		Host:     os.Getenv("SHEETPDF_SMTP_HOST"),
		Username: os.Getenv("SHEETPDF_SMTP_USER"),
		Password: os.Getenv("SHEETPDF_SMTP_PASSWORD"),
		From:     os.Getenv("SHEETPDF_SMTP_FROM"),
		Port:     587,
	}
	if p := os.Getenv("SHEETPDF_SMTP_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return cfg, fmt.Errorf("SHEETPDF_SMTP_PORT: %w", err)
		}
		cfg.Port = port
	}
	if cfg.Host == "" || cfg.From == "" {
		return cfg, fmt.Errorf("SHEETPDF_SMTP_HOST and SHEETPDF_SMTP_FROM must be set")
	}
	return cfg, nil
}

// newMailMessage attaches the PDF under filename.
func newMailMessage(cfg mailConfig, to, subject, filename string, data []byte) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", "Dokumen terlampir.<br>")
	msg.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}))
	return msg
}

// sendMail sends the PDF via SMTP.
func sendMail(cfg mailConfig, to, subject, filename string, data []byte) error {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return dialer.DialAndSend(newMailMessage(cfg, to, subject, filename, data))
}
