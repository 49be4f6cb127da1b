package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brief-copilot/llm"
)

// Responder produces the assistant reply for a conversation, one fragment at a time
type Responder interface {
	Respond(ctx context.Context, history []llm.Message, emit func(fragment string) error) error
}

// ProviderResponder relays a model provider
type ProviderResponder struct {
	Provider     llm.Provider
	SystemPrompt string
}

// NewProviderResponder relays p with the recruiter system prompt
func NewProviderResponder(p llm.Provider) *ProviderResponder {
	return &ProviderResponder{Provider: p, SystemPrompt: llm.RecruiterSystemPrompt}
}

// Respond streams the provider answer
func (r *ProviderResponder) Respond(ctx context.Context, history []llm.Message, emit func(fragment string) error) error {
	messages := make([]llm.Message, 0, len(history)+1)
	if r.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: r.SystemPrompt})
	}
	messages = append(messages, history...)

	ctx, cancel := context.WithCancel(ctx)
	stream, err := r.Provider.StreamChat(ctx, messages)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start %s stream: %w", r.Provider.Name(), err)
	}
	defer func() {
		// Stop the upstream reply and let the producer close the channel
		cancel()
		for range stream {
		}
	}()

	for resp := range stream {
		if resp.Error != nil {
			return resp.Error
		}
		if resp.Done {
			return nil
		}
		if resp.Content == "" {
			continue
		}
		if err := emit(resp.Content); err != nil {
			return err
		}
	}
	return nil
}

const (
	cannedDeveloperReply = "Parfait ! Vous cherchez un développeur. Pouvez-vous me préciser :\n\n" +
		"• Quel niveau d'expérience : junior (0-2 ans), confirmé (3-5 ans), ou senior (5+ ans) ?\n" +
		"• Quelles technologies sont prioritaires pour votre projet ?\n" +
		"• S'agit-il d'un poste en CDI, freelance, ou stage ?\n" +
		"• Le télétravail est-il possible ?"

	cannedProductReply = "Excellent ! Un profil Product. Aidez-moi à comprendre :\n\n" +
		"• Cherchez-vous plutôt un Product Manager (stratégie, roadmap) ou un Product Owner (collaboration équipe tech) ?\n" +
		"• Quelle est la taille de l'équipe produit actuelle ?\n" +
		"• Sur quel type de produit : B2B, B2C, SaaS, mobile app ?\n" +
		"• Y a-t-il des méthodes de travail spécifiques (Agile, Scrum) ?"

	cannedDefaultReply = "Merci pour ces précisions ! Pour mieux cerner votre besoin, pouvez-vous me parler :\n\n" +
		"• Du contexte de votre équipe actuelle\n" +
		"• Des principales missions que cette personne devra accomplir\n" +
		"• Des contraintes particulières (budget, timing, localisation)\n\n" +
		"N'hésitez pas à détailler, même les aspects qui vous semblent évidents !"
)

// CannedResponder answers without a model, word by word
type CannedResponder struct {
	Delay time.Duration
}

// Reply picks the canned answer for a user message
func (r *CannedResponder) Reply(userText string) string {
	text := strings.ToLower(userText)
	switch {
	case strings.Contains(text, "développeur") || strings.Contains(text, "dev"):
		return cannedDeveloperReply
	case strings.Contains(text, "product") || strings.Contains(text, "produit"):
		return cannedProductReply
	default:
		return cannedDefaultReply
	}
}

// Respond streams the canned answer for the last user message
func (r *CannedResponder) Respond(ctx context.Context, history []llm.Message, emit func(fragment string) error) error {
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			last = history[i].Content
			break
		}
	}
	if last == "" {
		return errors.New("no user message to answer")
	}

	for _, word := range strings.SplitAfter(r.Reply(last), " ") {
		if word == "" {
			continue
		}
		if r.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.Delay):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(word); err != nil {
			return err
		}
	}
	return nil
}
