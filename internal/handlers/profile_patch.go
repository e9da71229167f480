package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"net/url"
	"strings"

	"linkcard/backend/internal/models"
)

const (
	MaxBioLength   = 500
	MaxLinks       = 50
	MaxLinkTitle   = 100
	MaxStyleLength = 200
)

// ErrEmptyPatch is returned for an empty body or an object without fields.
var ErrEmptyPatch = errors.New("no update fields provided")

// ValidationError carries a message that is shown to the client as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// patchErrorMessage maps DecodeProfilePatch and Validate errors to client text.
func patchErrorMessage(err error) string {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrEmptyPatch):
		return "No update fields provided"
	case errors.As(err, &verr):
		return verr.Message
	default:
		return "Invalid update payload"
	}
}

// ProfilePatch is the whitelist of fields PATCH /user/:username may change.
// A nil pointer leaves the stored value untouched; nested objects merge key by
// key, while links and scalar values replace the stored value wholesale.
type ProfilePatch struct {
	Username *string       `json:"username"`
	Email    *string       `json:"email"`
	Avatar   *string       `json:"avatar"`
	Bio      *string       `json:"bio"`
	Links    *[]models.Link `json:"links"`
	Styles   *StylesPatch  `json:"styles"`
}

type StylesPatch struct {
	Font       *string          `json:"font"`
	Text       *string          `json:"text"`
	Border     *string          `json:"border"`
	Button     *string          `json:"button"`
	ButtonText *string          `json:"buttonText"`
	Background *BackgroundPatch `json:"background"`
}

type BackgroundPatch struct {
	Type  *models.BackgroundType `json:"type"`
	Value *BackgroundValuePatch  `json:"value"`
}

type BackgroundValuePatch struct {
	Color    *string        `json:"color"`
	Gradient *GradientPatch `json:"gradient"`
	Image    *string        `json:"image"`
}

type GradientPatch struct {
	From      *string `json:"from"`
	To        *string `json:"to"`
	Direction *string `json:"direction"`
}

// DecodeProfilePatch parses a PATCH body. Fields outside the whitelist,
// trailing data and empty bodies are errors.
func DecodeProfilePatch(r io.Reader) (*ProfilePatch, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyPatch
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var p ProfilePatch
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile patch: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode profile patch: trailing data")
	}
	if p.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	return &p, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p *ProfilePatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.Avatar == nil && p.Bio == nil &&
		p.Links == nil && p.Styles.isEmpty()
}

func (s *StylesPatch) isEmpty() bool {
	return s == nil || (s.Font == nil && s.Text == nil && s.Border == nil &&
		s.Button == nil && s.ButtonText == nil && s.Background.isEmpty())
}

func (b *BackgroundPatch) isEmpty() bool {
	return b == nil || (b.Type == nil && b.Value.isEmpty())
}

func (v *BackgroundValuePatch) isEmpty() bool {
	return v == nil || (v.Color == nil && v.Image == nil &&
		(v.Gradient == nil || (v.Gradient.From == nil && v.Gradient.To == nil && v.Gradient.Direction == nil)))
}

// Validate checks the values carried by the patch.
func (p *ProfilePatch) Validate() error {
	if p.Username != nil {
		if err := ValidateUsername(strings.TrimSpace(*p.Username)); err != nil {
			return err
		}
	}
	if p.Email != nil && !isBareAddress(*p.Email) {
		return invalidf("Invalid email address")
	}
	if p.Avatar != nil && *p.Avatar != "" && !isHTTPURL(*p.Avatar) {
		return invalidf("Avatar must be an http(s) URL")
	}
	if p.Bio != nil && len([]rune(*p.Bio)) > MaxBioLength {
		return invalidf("Bio must be at most %d characters", MaxBioLength)
	}
	if p.Links != nil {
		if len(*p.Links) > MaxLinks {
			return invalidf("At most %d links are allowed", MaxLinks)
		}
		for i, l := range *p.Links {
			if strings.TrimSpace(l.Title) == "" || len([]rune(l.Title)) > MaxLinkTitle {
				return invalidf("Link %d: title is required and must be at most %d characters", i+1, MaxLinkTitle)
			}
			if !isHTTPURL(l.URL) {
				return invalidf("Link %d: url must be an http(s) URL", i+1)
			}
		}
	}
	if s := p.Styles; s != nil {
		for _, v := range []*string{s.Font, s.Text, s.Border, s.Button, s.ButtonText} {
			if v != nil && len(*v) > MaxStyleLength {
				return invalidf("Style values must be at most %d characters", MaxStyleLength)
			}
		}
		if b := s.Background; b != nil {
			if b.Type != nil && !b.Type.Valid() {
				return invalidf("Background type must be one of color, gradient, image")
			}
			if b.Value != nil && b.Value.Image != nil && *b.Value.Image != "" && !isHTTPURL(*b.Value.Image) {
				return invalidf("Background image must be an http(s) URL")
			}
		}
	}
	return nil
}

// isBareAddress accepts a plain addr-spec only; display names and angle
// brackets would be stored verbatim and never match a login.
func isBareAddress(raw string) bool {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	return err == nil && addr.Name == "" && addr.Address == raw
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Apply merges the patch into u.
func (p *ProfilePatch) Apply(u *models.User) {
	setString(&u.Username, trimmed(p.Username))
	setString(&u.Email, lowered(p.Email))
	setString(&u.Avatar, p.Avatar)
	setString(&u.Bio, p.Bio)
	if p.Links != nil {
		u.Links = append([]models.Link{}, (*p.Links)...)
	}

	s := p.Styles
	if s == nil {
		return
	}
	setString(&u.Styles.Font, s.Font)
	setString(&u.Styles.Text, s.Text)
	setString(&u.Styles.Border, s.Border)
	setString(&u.Styles.Button, s.Button)
	setString(&u.Styles.ButtonText, s.ButtonText)

	b := s.Background
	if b == nil {
		return
	}
	if b.Type != nil {
		u.Styles.Background.Type = *b.Type
	}
	v := b.Value
	if v == nil {
		return
	}
	dst := &u.Styles.Background.Value
	setString(&dst.Color, v.Color)
	setString(&dst.Image, v.Image)
	if g := v.Gradient; g != nil {
		if dst.Gradient == nil {
			dst.Gradient = &models.Gradient{}
		}
		setString(&dst.Gradient.From, g.From)
		setString(&dst.Gradient.To, g.To)
		setString(&dst.Gradient.Direction, g.Direction)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}

func lowered(v *string) *string {
	if v == nil {
		return nil
	}
	s := normalizeEmail(*v)
	return &s
}
