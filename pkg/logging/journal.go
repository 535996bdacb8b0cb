// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

type journalSender func(message string, priority journal.Priority, vars map[string]string) error

// JournalHandler mirrors log records into the systemd journal in addition to
// forwarding them to the wrapped handler. Journal write failures are dropped.
type JournalHandler struct {
	next   slog.Handler
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
	send   journalSender
}

// NewJournalHandler wraps next with a journald mirror. When the journal
// socket is not available, next is returned unchanged.
func NewJournalHandler(next slog.Handler, level slog.Leveler) slog.Handler {
	if !journal.Enabled() {
		return next
	}
	return newJournalHandler(next, level, journal.Send)
}

func newJournalHandler(next slog.Handler, level slog.Leveler, send journalSender) *JournalHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &JournalHandler{
		next:  next,
		level: level,
		send:  send,
	}
}

// NewStructuredLoggerWithJournal is NewStructuredLogger with a journald mirror.
func NewStructuredLoggerWithJournal(module, version, level string) *slog.Logger {
	base := NewStructuredLogger(module, version, level)
	return slog.New(NewJournalHandler(base.Handler(), ParseLogLevel(level)))
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level.Level() || h.next.Enabled(ctx, l)
}

// Handle implements slog.Handler.
func (h *JournalHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.next.Enabled(ctx, r.Level) {
		err = h.next.Handle(ctx, r.Clone())
	}
	if r.Level < h.level.Level() {
		return err
	}

	vars := make(map[string]string, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addJournalVar(vars, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addJournalVar(vars, h.prefix, a)
		return true
	})
	_ = h.send(r.Message, journalPriority(r.Level), vars)
	return err
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.next = h.next.WithAttrs(attrs)
	c.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &c
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.next = h.next.WithGroup(name)
	c.prefix = h.prefix + name + "_"
	return &c
}

func journalPriority(l slog.Level) journal.Priority {
	switch {
	case l >= slog.LevelError:
		return journal.PriErr
	case l >= slog.LevelWarn:
		return journal.PriWarning
	case l >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

func addJournalVar(vars map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addJournalVar(vars, prefix+a.Key+"_", ga)
		}
		return
	}
	key := journalKey(prefix + a.Key)
	if key == "" {
		return
	}
	vars[key] = fmt.Sprint(a.Value.Any())
}

// journalKey maps an attribute key to a journal field name: upper case
// letters, digits and underscores, not starting with an underscore or digit.
func journalKey(k string) string {
	k = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, k)
	k = strings.TrimLeft(k, "_")
	if k == "" {
		return ""
	}
	if k[0] >= '0' && k[0] <= '9' {
		k = "F_" + k
	}
	return k
}
