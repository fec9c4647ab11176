package usecase

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"slices"
	"time"

	"github.com/skip2/go-qrcode"
)

type Email struct {
	To          []string
	From        string
	CC          []string
	BCC         []string
	Subject     string
	Body        string
	Attachments []EmailAttachment
}

type EmailAttachment struct {
	Name        string
	ContentType string
	Content     []byte
}

//go:embed templates/*
var templates embed.FS

type JobReportFailure struct {
	Item  string
	Error string
}

type JobReportData struct {
	Title       string
	CurrentYear string

	JobID      string
	JobType    string
	Status     string
	Error      string
	FinishedAt string

	Succeeded int
	Skipped   int
	Failures  []JobReportFailure

	SiteURL   string
	QRCodeURL string
}

// sendJobReport mails the outcome of a finished job when reporting is
// configured.
func (u Usecase) sendJobReport(ctx context.Context, job Job, res JobResult) error {
	if u.mailer == nil || len(u.opt.ReportTo) == 0 {
		return nil
	}

	body, err := u.buildJobReportBody(job, res)
	if err != nil {
		return err
	}

	email := Email{
		To:      u.opt.ReportTo,
		From:    u.opt.ReportFrom,
		Subject: fmt.Sprintf("[framecraft] %s %s", job.Type, job.Status),
		Body:    body,
	}
	if len(job.Result) > 0 {
		email.Attachments = append(email.Attachments, EmailAttachment{
			Name:        "result-" + job.ID.String() + ".json",
			ContentType: "application/json",
			Content:     job.Result,
		})
	}
	return u.mailer.SendEmail(ctx, email)
}

func (u Usecase) buildJobReportData(job Job, res JobResult) JobReportData {
	d := JobReportData{
		Title:       "Bulk job report",
		CurrentYear: time.Now().Format("2006"),
		JobID:       job.ID.String(),
		JobType:     job.Type,
		Status:      job.Status,
		Error:       job.Error,
		Succeeded:   len(res.Succeeded),
		Skipped:     len(res.Skipped),
		SiteURL:     u.opt.PublicSiteURL,
	}
	if job.FinishedAt != nil {
		d.FinishedAt = job.FinishedAt.Format("2006-01-02 03:04 PM")
	}

	items := make([]string, 0, len(res.Failed))
	for item := range res.Failed {
		items = append(items, item)
	}
	slices.Sort(items)
	for _, item := range items {
		d.Failures = append(d.Failures, JobReportFailure{Item: item, Error: res.Failed[item]})
	}

	if d.SiteURL != "" {
		if png, err := qrcode.Encode(d.SiteURL, qrcode.Low, 128); err == nil {
			d.QRCodeURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
		}
	}
	return d
}

func (u Usecase) buildJobReportBody(job Job, res JobResult) (string, error) {
	tmpl, err := template.
		New("job_report.html").
		Funcs(template.FuncMap{
			"safeURL": func(s string) template.URL {
				return template.URL(s)
			},
		}).
		ParseFS(templates, "templates/job_report.html")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, u.buildJobReportData(job, res)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SiteQRCode renders the public site URL as a PNG QR code.
func (u Usecase) SiteQRCode(size int) ([]byte, error) {
	if u.opt.PublicSiteURL == "" {
		return nil, fmt.Errorf("%w: public site url not configured", ErrUnavailable)
	}
	if size < 64 || size > 1024 {
		size = 256
	}
	return qrcode.Encode(u.opt.PublicSiteURL, qrcode.Medium, size)
}
