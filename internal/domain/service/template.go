package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/internal/domain/utils/validator"
	"github.com/fitness360/notification-svc/pkg/logger/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DefaultLanguage is used when neither the caller nor the configuration names one.
const DefaultLanguage = "pt-BR"

var placeholderRegexp = regexp.MustCompile(`\{\{(\w+)\}\}`)

type templateStorage interface {
	Get(ctx context.Context, notificationType entity.NotificationType, language string) (*entity.NotificationTemplate, error)
	Upsert(ctx context.Context, template *entity.NotificationTemplate) error
	Delete(ctx context.Context, notificationType entity.NotificationType, language string) error
	List(ctx context.Context, language string) ([]entity.NotificationTemplate, error)
}

type TemplateService struct {
	storage         templateStorage
	defaultLanguage string
	logger          *types.Logger
}

func NewTemplateService(storage templateStorage, defaultLanguage string, logger *types.Logger) *TemplateService {
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	return &TemplateService{
		storage:         storage,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// UpsertTemplate creates the template for (type, language) or replaces its title,
// content and variables.
func (s *TemplateService) UpsertTemplate(ctx context.Context, req dto.UpsertTemplate) (*entity.NotificationTemplate, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	template := &entity.NotificationTemplate{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Language:  s.language(req.Language),
		Title:     req.Title,
		Content:   req.Content,
		Variables: pq.StringArray(req.Variables),
	}
	if template.Variables == nil {
		template.Variables = pq.StringArray{}
	}

	if err := s.storage.Upsert(ctx, template); err != nil {
		return nil, err
	}
	s.logger.Infof("template saved (type=%s, language=%s)", template.Type, template.Language)
	return template, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, notificationType entity.NotificationType, language string) (*entity.NotificationTemplate, error) {
	language = s.language(language)
	template, err := s.storage.Get(ctx, notificationType, language)
	if errors.Is(err, errorz.ErrTemplateNotFound) {
		return nil, &errorz.TemplateNotFoundError{Type: string(notificationType), Language: language}
	}
	return template, err
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, notificationType entity.NotificationType, language string) error {
	language = s.language(language)
	err := s.storage.Delete(ctx, notificationType, language)
	if errors.Is(err, errorz.ErrTemplateNotFound) {
		return &errorz.TemplateNotFoundError{Type: string(notificationType), Language: language}
	}
	return err
}

// ListTemplates returns every template of a language ordered by type.
func (s *TemplateService) ListTemplates(ctx context.Context, language string) ([]entity.NotificationTemplate, error) {
	return s.storage.List(ctx, s.language(language))
}

// Render substitutes variables into the (type, language) template. Extra variables
// are ignored; placeholders left unresolved fail with *errorz.MissingVariablesError.
func (s *TemplateService) Render(
	ctx context.Context,
	notificationType entity.NotificationType,
	variables map[string]interface{},
	language string,
) (*dto.RenderedTemplate, error) {
	template, err := s.GetTemplate(ctx, notificationType, language)
	if err != nil {
		return nil, err
	}
	return renderTemplate(template.Title, template.Content, variables)
}

func renderTemplate(title, content string, variables map[string]interface{}) (*dto.RenderedTemplate, error) {
	var missing []string
	seen := make(map[string]bool)
	substitute := func(text string) string {
		return placeholderRegexp.ReplaceAllStringFunc(text, func(token string) string {
			name := placeholderRegexp.FindStringSubmatch(token)[1]
			if value, ok := variables[name]; ok {
				return fmt.Sprint(value)
			}
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			return token
		})
	}

	// Values are inserted as-is and never rescanned.
	title = substitute(title)
	content = substitute(content)

	if len(missing) > 0 {
		return nil, &errorz.MissingVariablesError{Names: missing}
	}
	return &dto.RenderedTemplate{Title: title, Content: content}, nil
}

func (s *TemplateService) language(language string) string {
	if language == "" {
		return s.defaultLanguage
	}
	return language
}
