package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the wire format for dates of birth.
const DateLayout = "2006-01-02"

// ProfileField names one user-editable column.
type ProfileField string

const (
	FieldName         ProfileField = "name"
	FieldBio          ProfileField = "bio"
	FieldPhone        ProfileField = "phone"
	FieldDateOfBirth  ProfileField = "dateOfBirth"
	FieldGender       ProfileField = "gender"
	FieldCountry      ProfileField = "country"
	FieldProfileImage ProfileField = "profileImage"
)

// ProfileFields is the allow-list for profile updates, in statement order.
var ProfileFields = []ProfileField{
	FieldName,
	FieldBio,
	FieldPhone,
	FieldDateOfBirth,
	FieldGender,
	FieldCountry,
	FieldProfileImage,
}

// Column returns the users table column backing the field.
func (f ProfileField) Column() string {
	switch f {
	case FieldName:
		return "name"
	case FieldBio:
		return "bio"
	case FieldPhone:
		return "phone"
	case FieldDateOfBirth:
		return "date_of_birth"
	case FieldGender:
		return "gender"
	case FieldCountry:
		return "country"
	case FieldProfileImage:
		return "profile_image"
	}
	return ""
}

// MaxLength is the longest value the backing column holds, in characters.
// Zero means unbounded.
func (f ProfileField) MaxLength() int {
	switch f {
	case FieldName:
		return 255
	case FieldPhone, FieldGender:
		return 32
	case FieldCountry:
		return 64
	}
	return 0
}

// ProfileUpdate maps allow-listed fields to their new value.
//
// Values are string, time.Time (date of birth) or nil to clear the column.
type ProfileUpdate map[ProfileField]any

// ParseProfileUpdate keeps the allow-listed keys of a raw payload and drops
// everything else. It fails with ErrNoValidFields when nothing is left.
func ParseProfileUpdate(raw map[string]any) (ProfileUpdate, error) {
	update := make(ProfileUpdate)

	for _, field := range ProfileFields {
		value, ok := raw[string(field)]
		if !ok {
			continue
		}

		parsed, err := parseProfileValue(field, value)
		if err != nil {
			return nil, err
		}
		update[field] = parsed
	}

	if len(update) == 0 {
		return nil, ErrNoValidFields
	}
	return update, nil
}

func parseProfileValue(field ProfileField, value any) (any, error) {
	if value == nil {
		if field == FieldName {
			return nil, fmt.Errorf("%w: %s cannot be empty", ErrInvalidProfileField, field)
		}
		return nil, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidProfileField, field)
	}
	s = strings.TrimSpace(s)

	if limit := field.MaxLength(); limit > 0 && utf8.RuneCountInString(s) > limit {
		return nil, fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidProfileField, field, limit)
	}

	switch field {
	case FieldName:
		if s == "" {
			return nil, fmt.Errorf("%w: %s cannot be empty", ErrInvalidProfileField, field)
		}
	case FieldDateOfBirth:
		if s == "" {
			return nil, nil
		}
		dob, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidProfileField, field)
		}
		return dob, nil
	}

	return s, nil
}

// Apply copies the update onto a user record, mirroring what storage writes.
func (p ProfileUpdate) Apply(u *User) {
	for field, value := range p {
		if field == FieldName {
			u.Name = value.(string)
			continue
		}
		if field == FieldDateOfBirth {
			if dob, ok := value.(time.Time); ok {
				u.DateOfBirth = &dob
			} else {
				u.DateOfBirth = nil
			}
			continue
		}

		var target **string
		switch field {
		case FieldBio:
			target = &u.Bio
		case FieldPhone:
			target = &u.Phone
		case FieldGender:
			target = &u.Gender
		case FieldCountry:
			target = &u.Country
		case FieldProfileImage:
			target = &u.ProfileImage
		default:
			continue
		}
		if s, ok := value.(string); ok {
			*target = &s
		} else {
			*target = nil
		}
	}
}
