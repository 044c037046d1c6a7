package webhook

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-scan-login/internal/domain"
)

// Canned replies sent back through the platform.
const (
	// EmptyReply tells the platform there is nothing to send to the user.
	EmptyReply = "success"

	ReplyLoginSucceeded = "登录操作成功，请返回网页查看状态"
	ReplyWelcome        = "感谢您的关注！"
	ReplyEchoPrefix     = "你发送的内容是："
	ReplyReceived       = "已收到您的消息"
)

// Resolver attaches a confirmed user to the attempt waiting on a scene.
type Resolver interface {
	ResolveByScene(ctx context.Context, sceneValue, openID string) (domain.ResolveOutcome, error)
}

// Dispatcher turns inbound platform payloads into passive replies.
type Dispatcher struct {
	resolver Resolver
	now      func() time.Time
}

func NewDispatcher(resolver Resolver) *Dispatcher {
	return &Dispatcher{resolver: resolver, now: time.Now}
}

// Handle processes one webhook delivery and returns the reply body.
// An empty body is the platform's liveness check: echo is returned when set,
// EmptyReply otherwise. Only malformed XML produces an error.
func (d *Dispatcher) Handle(ctx context.Context, body []byte, echo string) (string, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		if echo != "" {
			return echo, nil
		}
		return EmptyReply, nil
	}
	msg, err := ParseMessage(body)
	if err != nil {
		return "", err
	}
	switch {
	case strings.EqualFold(msg.MsgType, MsgTypeEvent):
		return d.handleEvent(ctx, msg)
	case strings.EqualFold(msg.MsgType, MsgTypeText):
		return d.reply(msg, ReplyEchoPrefix+msg.Content)
	default:
		return d.reply(msg, ReplyReceived)
	}
}

func (d *Dispatcher) handleEvent(ctx context.Context, msg *Message) (string, error) {
	ev := Classify(msg.Event, msg.EventKey)
	switch ev.Kind {
	case EventScan, EventSubscribeWithScene:
		out, err := d.resolver.ResolveByScene(ctx, ev.SceneValue, msg.FromUserName)
		switch {
		case err == nil:
			slog.Info("login attempt resolved",
				"attempt_id", out.AttemptID,
				"scene", ev.SceneValue,
				"open_id", msg.FromUserName,
				"kind", ev.Kind.String(),
				"already_resolved", out.AlreadyResolved,
			)
			return d.reply(msg, ReplyLoginSucceeded)
		case errors.Is(err, domain.ErrNotFound):
			slog.Info("scan event for unknown scene", "scene", ev.SceneValue, "kind", ev.Kind.String())
		default:
			slog.Warn("resolve login attempt failed", "scene", ev.SceneValue, "err", err)
		}
		if ev.Kind == EventSubscribeWithScene {
			return d.reply(msg, ReplyWelcome)
		}
		return EmptyReply, nil
	case EventSubscribe:
		return d.reply(msg, ReplyWelcome)
	case EventOther:
		return EmptyReply, nil
	}
	return EmptyReply, nil
}

// reply addresses content back to the sender, swapping sender and recipient.
func (d *Dispatcher) reply(msg *Message, content string) (string, error) {
	return TextReply(msg.FromUserName, msg.ToUserName, content, d.now())
}
