package auth

import (
	"encoding/json"
	"strconv"

	"github.com/goliatone/go-errors"
)

// profileExtractor maps one provider's raw profile payload into a
// CanonicalIdentity. Extractors are pure; the payload has already been fetched
// by the transport layer, so no I/O happens here.
type profileExtractor func(attrs map[string]any) (*CanonicalIdentity, error)

// extractors is the closed dispatch table over supported providers. Adding a
// provider means adding a row here plus its mapping function below.
var extractors = map[Provider]profileExtractor{
	ProviderGoogle:   extractGoogle,
	ProviderFacebook: extractFacebook,
	ProviderNaver:    extractNaver,
	ProviderKakao:    extractKakao,
	ProviderApple:    extractApple,
	ProviderLocal:    extractLocal,
}

// ResolveIdentity normalizes a raw provider profile payload into a canonical
// identity. It fails only for unrecognized providers or a payload missing the
// provider's subject field; absent optional fields resolve to empty strings.
func ResolveIdentity(provider Provider, attrs map[string]any) (*CanonicalIdentity, error) {
	extract, ok := extractors[provider]
	if !ok {
		return nil, withMeta(ErrUnsupportedProvider, map[string]any{
			"provider": string(provider),
		})
	}

	identity, err := extract(attrs)
	if err != nil {
		return nil, err
	}

	identity.Provider = provider
	return identity, nil
}

func extractGoogle(attrs map[string]any) (*CanonicalIdentity, error) {
	sub := stringAttr(attrs, "sub")
	if sub == "" {
		return nil, missingSubject(ProviderGoogle, "sub")
	}

	return &CanonicalIdentity{
		ExternalID:  sub,
		DisplayName: stringAttr(attrs, "name"),
		Email:       stringAttr(attrs, "email"),
		AvatarURL:   stringAttr(attrs, "picture"),
	}, nil
}

func extractFacebook(attrs map[string]any) (*CanonicalIdentity, error) {
	id := stringAttr(attrs, "id")
	if id == "" {
		return nil, missingSubject(ProviderFacebook, "id")
	}

	// avatar lives under picture.data.url
	var avatar string
	if picture := mapAttr(attrs, "picture"); picture != nil {
		if data := mapAttr(picture, "data"); data != nil {
			avatar = stringAttr(data, "url")
		}
	}

	return &CanonicalIdentity{
		ExternalID:  id,
		DisplayName: stringAttr(attrs, "name"),
		Email:       stringAttr(attrs, "email"),
		AvatarURL:   avatar,
	}, nil
}

func extractNaver(attrs map[string]any) (*CanonicalIdentity, error) {
	// NAVER wraps the profile in a response envelope
	profile := mapAttr(attrs, "response")
	if profile == nil {
		profile = attrs
	}

	id := stringAttr(profile, "id")
	if id == "" {
		return nil, missingSubject(ProviderNaver, "response.id")
	}

	return &CanonicalIdentity{
		ExternalID:  id,
		DisplayName: stringAttr(profile, "name"),
		Email:       stringAttr(profile, "email"),
		AvatarURL:   stringAttr(profile, "profile_image"),
	}, nil
}

func extractKakao(attrs map[string]any) (*CanonicalIdentity, error) {
	// KAKAO's id is numeric; the profile nests under kakao_account.profile
	id := stringAttr(attrs, "id")
	if id == "" {
		return nil, missingSubject(ProviderKakao, "id")
	}

	var name, email, avatar string
	if account := mapAttr(attrs, "kakao_account"); account != nil {
		email = stringAttr(account, "email")
		if profile := mapAttr(account, "profile"); profile != nil {
			name = stringAttr(profile, "nickname")
			avatar = stringAttr(profile, "profile_image_url")
		}
	}

	return &CanonicalIdentity{
		ExternalID:  id,
		DisplayName: name,
		Email:       email,
		AvatarURL:   avatar,
	}, nil
}

func extractApple(attrs map[string]any) (*CanonicalIdentity, error) {
	sub := stringAttr(attrs, "sub")
	if sub == "" {
		return nil, missingSubject(ProviderApple, "sub")
	}

	// Apple sends name only on the first consent grant and may replace email
	// with a relay address or withhold it entirely; both are valid optionals.
	// No avatar exists for this provider.
	return &CanonicalIdentity{
		ExternalID:  sub,
		DisplayName: stringAttr(attrs, "name"),
		Email:       stringAttr(attrs, "email"),
	}, nil
}

func extractLocal(attrs map[string]any) (*CanonicalIdentity, error) {
	email := stringAttr(attrs, "email")
	if email == "" {
		return nil, missingSubject(ProviderLocal, "email")
	}

	return &CanonicalIdentity{
		ExternalID:  email,
		DisplayName: stringAttr(attrs, "name"),
		Email:       email,
	}, nil
}

func missingSubject(provider Provider, field string) error {
	return errors.New("provider payload is missing its subject field", errors.CategoryBadInput).
		WithTextCode("PROVIDER_PAYLOAD_INVALID").
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{
			"provider": string(provider),
			"field":    field,
		})
}

// stringAttr reads a string-ish attribute, stringifying the numeric ids some
// providers use.
func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}

	switch v := attrs[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func mapAttr(attrs map[string]any, key string) map[string]any {
	if attrs == nil {
		return nil
	}
	m, _ := attrs[key].(map[string]any)
	return m
}
