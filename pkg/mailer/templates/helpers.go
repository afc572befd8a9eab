package templates

import (
	"fmt"
	"strings"
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02/01/2006 15:04 UTC")
	}
}

// Links holds the public front-end base URL used to build links in emails.
type Links struct {
	AppName string
	BaseURL string
}

func (l Links) base(typ, name, email string, opts ...Option) EmailData {
	base := strings.TrimRight(l.BaseURL, "/")
	d := EmailData{
		Name:         name,
		Email:        email,
		Type:         typ,
		AppName:      l.AppName,
		DirectoryURL: base + "/empreendedores",
		RegisterURL:  base + "/cadastro",
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewWelcomeData is sent after registration and links to the new public profile.
func NewWelcomeData(l Links, id int64, name, email string, opts ...Option) map[string]any {
	d := l.base(Welcome, name, email, opts...)
	d.ProfileURL = fmt.Sprintf("%s/empreendedores/%d", strings.TrimRight(l.BaseURL, "/"), id)
	return ToMap(d)
}

// NewAccountRemovedData confirms the self-deletion of an account.
func NewAccountRemovedData(l Links, name, email string, opts ...Option) map[string]any {
	return ToMap(l.base(AccountRemoved, name, email, opts...))
}
