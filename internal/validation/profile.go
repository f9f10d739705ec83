package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"orangecat/internal/models"
)

const (
	usernameMin    = 3
	usernameMax    = 30
	bioMax         = 500
	displayNameMax = 50
	websiteMax     = 200
)

var (
	usernameChars      = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	usernameRepeats    = regexp.MustCompile(`[_-]{2,}`)
	prohibitedMarkup   = regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed)|javascript\s*:|\bon[a-z]+\s*=`)
	leetspeak          = strings.NewReplacer("4", "a", "@", "a", "3", "e", "1", "i", "0", "o", "5", "s", "7", "t", "$", "s")
	identitySeparators = strings.NewReplacer("_", "", "-", "", ".", "")
)

// Reserved names, compared after leetspeak and separator normalisation.
var protectedNames = map[string]struct{}{
	"admin": {}, "administrator": {}, "support": {}, "help": {}, "root": {}, "system": {},
	"api": {}, "moderator": {}, "official": {}, "orangecat": {}, "bitcoin": {},
	"satoshi": {}, "nakamoto": {}, "satoshinakamoto": {}, "elonmusk": {}, "jackdorsey": {},
	"michaelsaylor": {}, "halfinney": {},
}

// Username enforces length, charset and the protected-name list.
func Username(s string) *models.ValidationError {
	name := strings.TrimSpace(s)
	n := utf8.RuneCountInString(name)
	switch {
	case n < usernameMin:
		return models.Invalid("username", "Username must be at least 3 characters")
	case n > usernameMax:
		return models.Invalid("username", "Username must be 30 characters or less")
	case !usernameChars.MatchString(name):
		return models.Invalid("username", "Username can only contain letters, numbers, hyphens, and underscores")
	case usernameRepeats.MatchString(name) || strings.ContainsAny(name[:1]+name[len(name)-1:], "_-"):
		return models.Invalid("username", "Username must start and end with a letter or number and cannot repeat hyphens or underscores")
	}
	if isProtected(name) {
		return models.Invalid("username", "This username is protected")
	}
	return nil
}

func isProtected(name string) bool {
	norm := identitySeparators.Replace(leetspeak.Replace(strings.ToLower(name)))
	_, ok := protectedNames[norm]
	return ok
}

// Bio allows up to 500 characters of plain text.
func Bio(s string) *models.ValidationError {
	if utf8.RuneCountInString(s) > bioMax {
		return models.Invalid("bio", "Bio must be under 500 characters")
	}
	if prohibitedMarkup.MatchString(s) {
		return models.Invalid("bio", "Bio contains prohibited content")
	}
	return nil
}

// DisplayName allows up to 50 characters without markup.
func DisplayName(s string) *models.ValidationError {
	name := strings.TrimSpace(s)
	if utf8.RuneCountInString(name) > displayNameMax {
		return models.Invalid("display_name", "Display name must be 50 characters or less")
	}
	if strings.ContainsAny(name, "<>") || prohibitedMarkup.MatchString(name) {
		return models.Invalid("display_name", "Display name contains prohibited content")
	}
	return nil
}

// Website accepts absolute http(s) URLs. Empty clears the field.
func Website(s string) *models.ValidationError {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil
	}
	if len(raw) > websiteMax {
		return models.Invalid("website", "Website must be 200 characters or less")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Invalid("website", "Website must be a valid http or https URL")
	}
	return nil
}

// ProfileUpdate runs every rule that applies to the provided fields and
// returns the first failure. Empty addresses clear the column and skip validation.
func ProfileUpdate(u models.ProfileUpdate) *models.ValidationError {
	if u.Username != nil {
		if verr := Username(*u.Username); verr != nil {
			return verr
		}
	}
	for _, name := range []*string{u.DisplayName, u.FullName} {
		if name != nil {
			if verr := DisplayName(*name); verr != nil {
				return verr
			}
		}
	}
	if u.Bio != nil {
		if verr := Bio(*u.Bio); verr != nil {
			return verr
		}
	}
	if u.Website != nil {
		if verr := Website(*u.Website); verr != nil {
			return verr
		}
	}
	if u.BitcoinAddress != nil && strings.TrimSpace(*u.BitcoinAddress) != "" {
		if verr := BitcoinAddress(*u.BitcoinAddress); verr != nil {
			return verr
		}
	}
	if u.LightningAddress != nil && strings.TrimSpace(*u.LightningAddress) != "" {
		if verr := LightningAddress(*u.LightningAddress); verr != nil {
			return verr
		}
	}
	return nil
}
