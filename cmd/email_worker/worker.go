package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
	"github.com/oksasatya/vitrine-empreendedores/pkg/mailer"
)

const sendTimeout = 15 * time.Second

type outcome int

const (
	ack     outcome = iota
	retry           // transient send failure, requeue
	discard         // poison message, drop
)

type sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type worker struct {
	Sender sender
	Logger *logrus.Logger
}

// handle decodes, renders and sends one queued job.
func (w *worker) handle(ctx context.Context, id string, body []byte) outcome {
	fields := logrus.Fields{"message_id": id}

	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		helpers.LogError(w.Logger, "bad message", err, fields)
		return discard
	}
	mailer.EnsureRecipient(&job)
	fields["template"] = job.Template

	msg, err := mailer.Build(job)
	if err != nil {
		helpers.LogError(w.Logger, "render failed", err, fields)
		return discard
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := w.Sender.Send(c, msg); err != nil {
		helpers.LogWarn(w.Logger, "send failed; requeueing", err, fields)
		return retry
	}
	helpers.LogInfo(w.Logger, "email sent", fields)
	return ack
}
