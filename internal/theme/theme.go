package theme

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Mode identifies the display mode.
type Mode string

const (
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
)

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == ModeLight {
		return ModeDark
	}
	return ModeLight
}

// SemanticRoles defines stable semantic color slots used across the UI.
type SemanticRoles struct {
	Primary string
	Accent  string
	Muted   string
	Border  string
}

// Style describes presentational attributes for a UI element.
type Style struct {
	Foreground string
	Background string
	Bold       bool
}

// StyleSet provides strongly-typed styles for the runtime UI surfaces.
type StyleSet struct {
	Nav     Style
	Toggle  Style
	Surface Style
	Footer  Style
}

// Bundle contains all display styles needed by the runtime UI surface.
type Bundle struct {
	StyleSet
	Roles SemanticRoles
	// Mono is set when the terminal cannot show the palette.
	Mono bool
}

// TermProfile describes terminal rendering capabilities derived from TERM.
type TermProfile struct {
	Colors    int
	TrueColor bool
	IsTTY     bool
}

// TermProfileDetector maps a TERM value to a terminal capability profile.
type TermProfileDetector func(term string) TermProfile

// ErrUnknownMode is returned when a requested mode is not known.
var ErrUnknownMode = errors.New("unknown theme mode")

var (
	termProfileCache sync.Map

	noColor    = TermProfile{}
	ansiColor  = TermProfile{Colors: 8, IsTTY: true}
	basicColor = TermProfile{Colors: 16, IsTTY: true}
	extColor   = TermProfile{Colors: 256, IsTTY: true}
	trueColor  = TermProfile{Colors: 1 << 24, TrueColor: true, IsTTY: true}

	// termFamilies is scanned in order and the first marker found in TERM
	// wins, so "screen.xterm-256color" stays at 8 colors.
	termFamilies = []struct {
		markers []string
		profile TermProfile
	}{
		{markers: []string{"dumb"}, profile: noColor},
		{markers: []string{"screen"}, profile: ansiColor},
		{markers: []string{"truecolor", "24bit", "direct", "kitty", "wezterm"}, profile: trueColor},
		{markers: []string{"256", "tmux"}, profile: extColor},
		{markers: []string{"ansi", "vt100", "vt220"}, profile: ansiColor},
	}
)

var palettes = map[Mode]Bundle{
	ModeDark: {
		StyleSet: StyleSet{
			Nav:     Style{Foreground: "#C9D1D9", Background: "#0D1117"},
			Toggle:  Style{Foreground: "#0D1117", Background: "#C9D1D9", Bold: true},
			Surface: Style{Foreground: "#E6EDF3", Background: "#0D1117"},
			Footer:  Style{Foreground: "#6E7681", Background: "#0D1117"},
		},
		Roles: SemanticRoles{Primary: "#0D1117", Accent: "#C9D1D9", Muted: "#6E7681", Border: "#30363D"},
	},
	ModeLight: {
		StyleSet: StyleSet{
			Nav:     Style{Foreground: "#24292F", Background: "#F6F8FA"},
			Toggle:  Style{Foreground: "#F6F8FA", Background: "#24292F", Bold: true},
			Surface: Style{Foreground: "#1F2328", Background: "#FFFFFF"},
			Footer:  Style{Foreground: "#6E7781", Background: "#FFFFFF"},
		},
		Roles: SemanticRoles{Primary: "#FFFFFF", Accent: "#24292F", Muted: "#6E7781", Border: "#D0D7DE"},
	},
}

var modes = [...]Mode{ModeDark, ModeLight}

// ResolveOptions controls how a bundle is selected once a TERM profile exists.
type ResolveOptions struct {
	Term       string
	ForceColor bool
	ForceMono  bool
}

// Resolve resolves a concrete style bundle for a mode and TERM value.
//
// Terminals without color support (dumb, non-TTY) get a monochrome bundle
// unless color is explicitly forced.
func Resolve(mode Mode, term string) (Bundle, error) {
	bundle, _, err := resolveWithProfile(mode, ResolveOptions{Term: term}, detectTermProfile)
	return bundle, err
}

// ResolveWithDetector resolves a bundle using a caller-provided TERM detector.
func ResolveWithDetector(mode Mode, opts ResolveOptions, detector TermProfileDetector) (Bundle, error) {
	if detector == nil {
		detector = detectTermProfile
	}
	bundle, _, err := resolveWithProfile(mode, opts, detector)
	return bundle, err
}

// OptionsFromEnv reads the runtime overrides:
//   - SATURN_THEME_FORCE_COLOR (boolean)
//   - SATURN_THEME_FORCE_MONO (boolean)
func OptionsFromEnv(term string) ResolveOptions {
	return ResolveOptions{
		Term:       term,
		ForceColor: parseBoolEnv("SATURN_THEME_FORCE_COLOR"),
		ForceMono:  parseBoolEnv("SATURN_THEME_FORCE_MONO"),
	}
}

// ResolveFromEnv resolves the bundle with OptionsFromEnv. When
// SATURN_THEME_DEBUG is true, the resolved profile is logged.
func ResolveFromEnv(mode Mode, term string, log *zap.Logger) (Bundle, error) {
	opts := OptionsFromEnv(term)
	bundle, profile, err := resolveWithProfile(mode, opts, detectTermProfile)
	if err != nil {
		return Bundle{}, err
	}

	if log != nil && parseBoolEnv("SATURN_THEME_DEBUG") {
		log.Info("theme resolved",
			zap.String("event", "theme_resolved"),
			zap.String("mode", string(mode)),
			zap.String("term", term),
			zap.Int("colors", profile.Colors),
			zap.Bool("truecolor", profile.TrueColor),
			zap.Bool("tty", profile.IsTTY),
			zap.Bool("force_color", opts.ForceColor),
			zap.Bool("force_mono", opts.ForceMono),
		)
	}
	return bundle, nil
}

func resolveWithProfile(mode Mode, opts ResolveOptions, detector TermProfileDetector) (Bundle, TermProfile, error) {
	base, ok := palettes[mode]
	if !ok {
		return Bundle{}, TermProfile{}, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	term := strings.TrimSpace(opts.Term)
	if term == "" {
		term = os.Getenv("TERM")
	}

	profile := detector(term)
	if shouldUseMonochrome(profile, opts) {
		return monochromeBundle(mode), profile, nil
	}
	return base, profile, nil
}

func parseBoolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func shouldUseMonochrome(profile TermProfile, opts ResolveOptions) bool {
	if opts.ForceMono {
		return true
	}
	if opts.ForceColor {
		return false
	}
	return !profile.IsTTY || profile.Colors == 0
}

func detectTermProfile(term string) TermProfile {
	norm := strings.ToLower(strings.TrimSpace(term))
	if cached, ok := termProfileCache.Load(norm); ok {
		return cached.(TermProfile)
	}

	profile := detectTermProfileUncached(norm)
	termProfileCache.Store(norm, profile)
	return profile
}

func detectTermProfileUncached(norm string) TermProfile {
	if norm == "" {
		return noColor
	}
	for _, family := range termFamilies {
		for _, marker := range family.markers {
			if strings.Contains(norm, marker) {
				return family.profile
			}
		}
	}
	return basicColor
}

// monochromeBundle carries no colors; light mode is marked by a bold nav
// bar.
func monochromeBundle(mode Mode) Bundle {
	b := Bundle{Mono: true}
	b.Toggle.Bold = true
	if mode == ModeLight {
		b.Nav.Bold = true
	}
	return b
}
