package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"avatar-chat/internal/ai"
	"avatar-chat/internal/model"
	"avatar-chat/internal/speech"
	"avatar-chat/internal/storage"
)

const lastResponsePhrase = "last response"

const (
	lastResponseFormat = "Your last response was: %s"
	noPreviousResponse = "No previous responses found."
)

type HistoryStore interface {
	Create(ctx context.Context, entry *model.SearchHistory) error
	LatestByUserID(ctx context.Context, userID uint) (*model.SearchHistory, error)
}

type LastResponseCache interface {
	GetLast(ctx context.Context, userID uint) (*model.SearchHistory, bool, error)
	SetLast(ctx context.Context, entry model.SearchHistory) error
	Invalidate(ctx context.Context, userID uint) error
}

type TurnPublisher interface {
	PublishTurn(ctx context.Context, event model.TurnEvent) error
}

// AudioOptions decides where a rendered reply is stored and how it is linked.
// With UniqueNames unset every turn overwrites the same Filename.
type AudioOptions struct {
	Filename    string
	URLPrefix   string
	UniqueNames bool
}

type ChatService struct {
	users       UserStore
	history     HistoryStore
	generator   ai.Generator
	synthesizer speech.Synthesizer
	audio       storage.AudioStore
	audioOpts   AudioOptions
	cache       LastResponseCache
	publisher   TurnPublisher
}

type ChatInput struct {
	Text  string
	Email string
}

type ChatResult struct {
	Response string
	AudioURL string
}

// NewChatService wires the orchestrator. cache and publisher may be nil.
func NewChatService(
	users UserStore,
	history HistoryStore,
	generator ai.Generator,
	synthesizer speech.Synthesizer,
	audio storage.AudioStore,
	audioOpts AudioOptions,
	cache LastResponseCache,
	publisher TurnPublisher,
) *ChatService {
	if audioOpts.Filename == "" {
		audioOpts.Filename = "response.mp3"
	}
	if audioOpts.URLPrefix == "" {
		audioOpts.URLPrefix = "/audio/"
	}
	return &ChatService{
		users:       users,
		history:     history,
		generator:   generator,
		synthesizer: synthesizer,
		audio:       audio,
		audioOpts:   audioOpts,
		cache:       cache,
		publisher:   publisher,
	}
}

func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	if missing(input.Text) || missing(input.Email) {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if strings.Contains(strings.ToLower(input.Text), lastResponsePhrase) {
		return s.recallLastResponse(ctx, user.ID)
	}
	return s.answer(ctx, user, input.Text)
}

// recallLastResponse never writes history and never renders audio.
func (s *ChatService) recallLastResponse(ctx context.Context, userID uint) (*ChatResult, error) {
	last, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return &ChatResult{Response: noPreviousResponse}, nil
	}
	return &ChatResult{Response: fmt.Sprintf(lastResponseFormat, last.Response)}, nil
}

func (s *ChatService) latest(ctx context.Context, userID uint) (*model.SearchHistory, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetLast(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "last response cache read failed", "user_id", userID, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	last, err := s.history.LatestByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		s.remember(ctx, *last)
	}
	return last, nil
}

func (s *ChatService) answer(ctx context.Context, user *model.User, text string) (*ChatResult, error) {
	generated, err := s.generator.Generate(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("generate response failed: %w", err)
	}
	reply := strings.TrimSpace(generated)

	entry := &model.SearchHistory{
		UserID:   user.ID,
		Query:    text,
		Response: reply,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.remember(ctx, *entry)

	audio, err := s.render(ctx, reply)
	if err != nil {
		return nil, err
	}
	filename := s.audioFilename(user.ID)
	if err := s.audio.Put(ctx, filename, audio); err != nil {
		return nil, fmt.Errorf("store audio failed: %w", err)
	}
	audioURL := s.audioOpts.URLPrefix + filename

	if s.publisher != nil {
		event := model.TurnEvent{
			HistoryID: entry.ID,
			UserID:    user.ID,
			Query:     entry.Query,
			Response:  entry.Response,
			AudioURL:  audioURL,
			CreatedAt: entry.CreatedAt,
		}
		if err := s.publisher.PublishTurn(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish turn event failed", "history_id", entry.ID, "error", err)
		}
	}

	return &ChatResult{Response: reply, AudioURL: audioURL}, nil
}

// render speaks reply. An empty reply still gets an audio file, a short
// silence, so the turn completes like any other.
func (s *ChatService) render(ctx context.Context, reply string) ([]byte, error) {
	if reply == "" {
		return speech.Silence(), nil
	}
	audio, err := s.synthesizer.Synthesize(ctx, reply)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech failed: %w", err)
	}
	return audio, nil
}

// remember offers entry to the cache, which keeps whichever row is newest. If
// the write fails the key is dropped so a stale entry cannot shadow the
// database.
func (s *ChatService) remember(ctx context.Context, entry model.SearchHistory) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLast(ctx, entry); err != nil {
		slog.WarnContext(ctx, "last response cache write failed", "user_id", entry.UserID, "error", err)
		if err := s.cache.Invalidate(ctx, entry.UserID); err != nil {
			slog.WarnContext(ctx, "last response cache invalidate failed", "user_id", entry.UserID, "error", err)
		}
	}
}

func (s *ChatService) audioFilename(userID uint) string {
	if !s.audioOpts.UniqueNames {
		return s.audioOpts.Filename
	}
	return fmt.Sprintf("%d-%s.mp3", userID, uuid.NewString())
}

// OpenAudio exposes the stored audio for the download endpoint.
func (s *ChatService) OpenAudio(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.audio.Open(ctx, name)
}
