package kinship

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/inodb/vibe-kinship/internal/genotype"
)

// ErrUnknownSample is returned when a named sample is not among the profiles.
var ErrUnknownSample = errors.New("unknown sample")

// roleKeywords map name tokens to roles. Whole words are matched so that
// "AF" does not match inside an unrelated name.
var roleKeywords = map[string]Role{
	"CHILD":         RoleChild,
	"KID":           RoleChild,
	"SON":           RoleChild,
	"DAUGHTER":      RoleChild,
	"MOTHER":        RoleMother,
	"MOM":           RoleMother,
	"MUM":           RoleMother,
	"FATHER":        RoleAllegedFather,
	"AF":            RoleAllegedFather,
	"DAD":           RoleAllegedFather,
	"ALLEGEDFATHER": RoleAllegedFather,
}

// RoleFromName guesses a sample's role from keywords in its name.
func RoleFromName(name string) (Role, bool) {
	tokens := strings.FieldsFunc(strings.ToUpper(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if r, ok := roleKeywords[strings.TrimRight(tok, "0123456789")]; ok {
			return r, true
		}
	}
	return "", false
}

// AssignRoles builds a trio from profiles whose names identify their role.
// Profiles whose role cannot be guessed are ignored; two profiles claiming
// the same role is an error.
func AssignRoles(profiles map[string]*genotype.Profile) (Trio, error) {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	trio := Trio{Samples: len(profiles)}
	claimed := make(map[Role]string)
	for _, name := range names {
		r, ok := RoleFromName(name)
		if !ok {
			continue
		}
		if prev, dup := claimed[r]; dup {
			return Trio{}, fmt.Errorf("samples %q and %q both look like the %s", prev, name, r)
		}
		claimed[r] = name
		trio.Set(r, profiles[name])
	}
	return trio, nil
}

// SelectTrio builds a trio from explicitly named samples. An empty mother
// name means no mother.
func SelectTrio(profiles map[string]*genotype.Profile, child, mother, father string) (Trio, error) {
	trio := Trio{Samples: len(profiles)}
	for _, sel := range []struct {
		role Role
		name string
	}{
		{RoleChild, child},
		{RoleMother, mother},
		{RoleAllegedFather, father},
	} {
		if sel.name == "" {
			continue
		}
		p, ok := profiles[sel.name]
		if !ok {
			return Trio{}, fmt.Errorf("%w: %s %q", ErrUnknownSample, sel.role, sel.name)
		}
		trio.Set(sel.role, p)
	}
	return trio, nil
}
