package webhook

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/go-scan-login/internal/domain"
)

// Message types the platform delivers.
const (
	MsgTypeText  = "text"
	MsgTypeEvent = "event"
)

// Message is an inbound platform message or event.
type Message struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   string   `xml:"ToUserName"`
	FromUserName string   `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      string   `xml:"MsgType"`
	Content      string   `xml:"Content"`
	Event        string   `xml:"Event"`
	EventKey     string   `xml:"EventKey"`
	Ticket       string   `xml:"Ticket"`
	MsgID        string   `xml:"MsgId"`
	PicURL       string   `xml:"PicUrl"`
	MediaID      string   `xml:"MediaId"`
}

// ParseMessage decodes an XML payload. Malformed input yields domain.ErrBadRequest.
func ParseMessage(body []byte) (*Message, error) {
	var m Message
	if err := xml.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parse message xml: %v: %w", err, domain.ErrBadRequest)
	}
	m.MsgType = strings.TrimSpace(m.MsgType)
	m.Event = strings.TrimSpace(m.Event)
	m.EventKey = strings.TrimSpace(m.EventKey)
	return &m, nil
}

type cdata struct {
	Value string `xml:",cdata"`
}

// textReply is the passive text reply envelope.
type textReply struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   cdata    `xml:"ToUserName"`
	FromUserName cdata    `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      cdata    `xml:"MsgType"`
	Content      cdata    `xml:"Content"`
}

// TextReply renders a text reply from the account (from) to the user (to).
func TextReply(to, from, content string, at time.Time) (string, error) {
	out, err := xml.Marshal(textReply{
		ToUserName:   cdata{to},
		FromUserName: cdata{from},
		CreateTime:   at.Unix(),
		MsgType:      cdata{MsgTypeText},
		Content:      cdata{content},
	})
	if err != nil {
		return "", fmt.Errorf("marshal text reply: %w", err)
	}
	return string(out), nil
}
