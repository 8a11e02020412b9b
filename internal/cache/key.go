package cache

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	separator = ":"
	// Wildcard matches any run of characters, as in a Redis glob.
	Wildcard = "*"
)

// Key is a structured cache key: a namespace followed by segments, rendered
// as "namespace:seg1:seg2". Each segment is query-escaped when rendered, so
// any non-empty ID is usable and no segment can contain a separator or act
// as a glob.
type Key struct {
	segments []string
}

// NewKey builds a key from a namespace and its segments.
func NewKey(namespace string, segments ...string) Key {
	return Key{segments: append([]string{namespace}, segments...)}
}

// String renders the key.
func (k Key) String() string {
	return render(k.segments, false)
}

// Validate reports ErrMalformedKey if the key or any of its segments is empty.
func (k Key) Validate() error {
	if len(k.segments) == 0 {
		return fmt.Errorf("%w: empty key", ErrMalformedKey)
	}
	for i, seg := range k.segments {
		if seg == "" {
			return fmt.Errorf("%w: segment %d of %q is empty", ErrMalformedKey, i, k.String())
		}
	}
	return nil
}

// Pattern is a glob over keys, built from segments that are either literal
// or Wildcard.
type Pattern struct {
	segments []string
}

// NewPattern builds a pattern. Use Wildcard for variable segments; every
// other segment is matched literally.
func NewPattern(namespace string, segments ...string) Pattern {
	return Pattern{segments: append([]string{namespace}, segments...)}
}

func (p Pattern) String() string {
	return render(p.segments, true)
}

// Validate checks every non-wildcard segment the same way Key does.
func (p Pattern) Validate() error {
	if len(p.segments) == 0 {
		return fmt.Errorf("%w: empty pattern", ErrMalformedKey)
	}
	for i, seg := range p.segments {
		if seg == "" {
			return fmt.Errorf("%w: segment %d of pattern %q is empty", ErrMalformedKey, i, p.String())
		}
	}
	return nil
}

// ParsePattern parses a rendered, colon-separated pattern such as
// "post:*:likes". Escaped segments are decoded; a glob character is only
// allowed as a whole "*" segment.
func ParsePattern(s string) (Pattern, error) {
	if s == "" {
		return Pattern{}, fmt.Errorf("%w: empty pattern", ErrMalformedKey)
	}
	raw := strings.Split(s, separator)
	segs := make([]string, len(raw))
	for i, seg := range raw {
		if seg == Wildcard {
			segs[i] = seg
			continue
		}
		if strings.ContainsAny(seg, "*?[]\\") {
			return Pattern{}, fmt.Errorf("%w: segment %d of pattern %q: wildcards must be whole segments", ErrMalformedKey, i, s)
		}
		dec, err := url.QueryUnescape(seg)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w: segment %d of pattern %q: %v", ErrMalformedKey, i, s, err)
		}
		segs[i] = dec
	}
	p := Pattern{segments: segs}
	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

func render(segments []string, globs bool) string {
	out := make([]string, len(segments))
	for i, seg := range segments {
		if globs && seg == Wildcard {
			out[i] = seg
			continue
		}
		out[i] = url.QueryEscape(seg)
	}
	return strings.Join(out, separator)
}
