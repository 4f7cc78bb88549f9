package model

// REQUEST PAYLOADS:
// Every struct below is decoded with unknown fields rejected, then checked
// against its `validate` tags. Update payloads use pointers so that an
// absent or null field can be told apart from an empty one.

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email_pattern"`
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest accepts either a username or an email.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type CreateEntryRequest struct {
	Title   string  `json:"title"   validate:"required,notblank"`
	Content string  `json:"content" validate:"required,notblank"`
	Tags    *string `json:"tags"`
}

type UpdateEntryRequest struct {
	ID      int64   `json:"id"      validate:"required,gt=0"`
	Title   *string `json:"title"   validate:"omitnil,notblank"`
	Content *string `json:"content" validate:"omitnil,notblank"`
	Tags    *string `json:"tags"`
}

// Patch drops the id and keeps the optional fields.
func (r UpdateEntryRequest) Patch() EntryPatch {
	return EntryPatch{Title: r.Title, Content: r.Content, Tags: r.Tags}
}

type CreateSnippetRequest struct {
	Title       string  `json:"title"       validate:"required,notblank"`
	Language    string  `json:"language"    validate:"required,notblank"`
	Snippet     string  `json:"snippet"     validate:"required,notblank"`
	Description string  `json:"description" validate:"required,notblank"`
	Tags        *string `json:"tags"`
}

type UpdateSnippetRequest struct {
	ID          int64   `json:"id"          validate:"required,gt=0"`
	Title       *string `json:"title"       validate:"omitnil,notblank"`
	Language    *string `json:"language"    validate:"omitnil,notblank"`
	Snippet     *string `json:"snippet"     validate:"omitnil,notblank"`
	Description *string `json:"description" validate:"omitnil,notblank"`
	Tags        *string `json:"tags"`
}

func (r UpdateSnippetRequest) Patch() SnippetPatch {
	return SnippetPatch{
		Title:       r.Title,
		Code:        r.Snippet,
		Language:    r.Language,
		Description: r.Description,
		Tags:        r.Tags,
	}
}

// GenerateRequest is the input to the metadata endpoints.
type GenerateRequest struct {
	Content  string `json:"content"  validate:"required,notblank"`
	Language string `json:"language"`
	Title    string `json:"title"`
}
