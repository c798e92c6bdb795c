// Copyright (C) 2026  Danish Fareed <danish.fareed@pm.me>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type fieldRequest struct{}
type fieldForm struct{}
type fieldSubmission struct{}
type fieldProvider struct{}

// WithRequest adds the request identifier to the context.
func WithRequest(ctx context.Context, request string) context.Context {
	return context.WithValue(ctx, fieldRequest{}, request)
}

// WithForm adds the form slug to the context.
func WithForm(ctx context.Context, form string) context.Context {
	return context.WithValue(ctx, fieldForm{}, form)
}

// WithSubmission adds the submission identifier to the context.
func WithSubmission(ctx context.Context, submission string) context.Context {
	return context.WithValue(ctx, fieldSubmission{}, submission)
}

// WithProvider adds the delivery provider name to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, fieldProvider{}, provider)
}

// appendContextFields adds defined fields in the context to the log event.
func appendContextFields(ctx context.Context, event *zerolog.Event) *zerolog.Event {
	if request, ok := ctx.Value(fieldRequest{}).(string); ok {
		event.Str("request", request)
	}

	if form, ok := ctx.Value(fieldForm{}).(string); ok {
		event.Str("form", form)
	}

	if submission, ok := ctx.Value(fieldSubmission{}).(string); ok {
		event.Str("submission", submission)
	}

	if provider, ok := ctx.Value(fieldProvider{}).(string); ok {
		event.Str("provider", provider)
	}

	return event
}
