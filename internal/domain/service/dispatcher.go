package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"sync"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/pkg/logger/types"
)

type emailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type pushSender interface {
	Send(ctx context.Context, token, title, body string) error
}

type messageSender interface {
	Send(ctx context.Context, to, text string) error
}

// ChannelFailure describes one channel whose adapter call did not succeed.
type ChannelFailure struct {
	Channel entity.Channel
	Err     error
}

type DispatchResult struct {
	Attempted int
	Succeeded int
	Failures  []ChannelFailure
}

// Dispatcher fans a rendered notification out to the channel adapters.
type Dispatcher struct {
	email    emailSender
	push     pushSender
	whatsapp messageSender

	emailFooter string
	logger      *types.Logger
}

func NewDispatcher(email emailSender, push pushSender, whatsapp messageSender, emailFooter string, logger *types.Logger) *Dispatcher {
	return &Dispatcher{
		email:       email,
		push:        push,
		whatsapp:    whatsapp,
		emailFooter: emailFooter,
		logger:      logger,
	}
}

type channelJob struct {
	channel entity.Channel
	send    func(ctx context.Context) error
}

// Dispatch calls every channel in channels the user can be reached on, all at once.
// Channels without contact info are skipped and not counted as attempted. A failing
// or panicking adapter only fails its own channel; Dispatch waits for all of them.
func (d *Dispatcher) Dispatch(ctx context.Context, user entity.User, title, content string, channels []entity.Channel) DispatchResult {
	jobs := d.jobs(user, title, content, channels)
	result := DispatchResult{Attempted: len(jobs)}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, job := range jobs {
		wg.Add(1)
		go func(job channelJob) {
			defer wg.Done()
			err := d.run(ctx, job)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, ChannelFailure{Channel: job.channel, Err: err})
				return
			}
			result.Succeeded++
		}(job)
	}
	wg.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return channelOrder(result.Failures[i].Channel) < channelOrder(result.Failures[j].Channel)
	})
	return result
}

func (d *Dispatcher) jobs(user entity.User, title, content string, channels []entity.Channel) []channelJob {
	var jobs []channelJob
	for _, channel := range entity.UniqueChannels(channels) {
		if !user.Reachable(channel) {
			d.logger.Debugf("skipping %s: no contact info (user_id=%s)", channel, user.ID)
			continue
		}

		switch channel {
		case entity.ChannelEmail:
			body := FormatEmail(title, content, d.emailFooter)
			jobs = append(jobs, channelJob{channel: channel, send: func(ctx context.Context) error {
				return d.email.Send(ctx, user.Email, title, body)
			}})
		case entity.ChannelPush:
			jobs = append(jobs, channelJob{channel: channel, send: func(ctx context.Context) error {
				return d.push.Send(ctx, user.PushToken, title, content)
			}})
		case entity.ChannelWhatsApp:
			text := FormatWhatsApp(title, content)
			jobs = append(jobs, channelJob{channel: channel, send: func(ctx context.Context) error {
				return d.whatsapp.Send(ctx, user.PhoneNumber, text)
			}})
		}
	}
	return jobs
}

func (d *Dispatcher) run(ctx context.Context, job channelJob) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		channelSendDuration.WithLabelValues(string(job.channel)).Observe(time.Since(start).Seconds())
		if err != nil {
			channelSendsTotal.WithLabelValues(string(job.channel), "failure").Inc()
			d.logger.Warnf("failed to send through %s: %v", job.channel, err)
			return
		}
		channelSendsTotal.WithLabelValues(string(job.channel), "success").Inc()
	}()
	return job.send(ctx)
}

// FormatEmail builds the HTML body sent by email.
func FormatEmail(title, content, footer string) string {
	return fmt.Sprintf("<h2>%s</h2><p>%s</p><hr><small>%s</small>",
		html.EscapeString(title), html.EscapeString(content), html.EscapeString(footer))
}

// FormatWhatsApp builds the messaging-app text, title in bold.
func FormatWhatsApp(title, content string) string {
	return fmt.Sprintf("*%s*\n\n%s", title, content)
}

func channelOrder(channel entity.Channel) int {
	for i, c := range entity.AllChannels {
		if c == channel {
			return i
		}
	}
	return len(entity.AllChannels)
}
