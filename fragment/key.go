package fragment

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonwraymond/fragcache/cache"
)

// Backend key suffixes of a stored fragment.
const (
	markerSuffix  = "_key"
	contentSuffix = "_content"
)

// Site identifies the place in the rendering code that produces a fragment,
// e.g. "widgets/most-commented.php:18".
//
// Two call sites that choose the same Site share cache entries.
type Site string

// SiteFor builds a Site from a source file and line, with root stripped from
// the front of file.
func SiteFor(root, file string, line int) Site {
	rel := filepath.ToSlash(file)
	if root != "" {
		rel = strings.TrimPrefix(rel, filepath.ToSlash(root))
	}
	rel = strings.TrimLeft(rel, "/")
	return Site(rel + ":" + strconv.Itoa(line))
}

// Discriminator distinguishes variants of the fragment rendered at one Site.
// It is either a block name (Block) or a structured value (Query). The zero
// Discriminator is a Query of nil.
type Discriminator struct {
	block bool
	name  string
	value any
}

// Block returns a discriminator that selects a fragment by name. The name
// becomes part of the key and nothing is fingerprinted.
func Block(name string) Discriminator {
	return Discriminator{block: true, name: name}
}

// Query returns a discriminator whose value is fingerprinted. A change in the
// value invalidates the fragment cached for the site.
func Query(value any) Discriminator {
	return Discriminator{value: value}
}

// IsBlock reports whether d is a block-name discriminator.
func (d Discriminator) IsBlock() bool { return d.block }

func (d Discriminator) String() string {
	if d.block {
		return "block(" + d.name + ")"
	}
	return fmt.Sprintf("query(%T)", d.value)
}

// Key is the derived identity of a fragment.
type Key struct {
	// Name is the backend key prefix shared by the fragment's entries.
	Name string
	// Fingerprint is empty for block discriminators.
	Fingerprint string
}

// MarkerKey returns the backend key holding the fingerprint.
func (k Key) MarkerKey() string { return k.Name + markerSuffix }

// ContentKey returns the backend key holding the captured output.
func (k Key) ContentKey() string { return k.Name + contentSuffix }

// DeriveKey computes the key for site and d. It is deterministic: equal
// inputs always give equal keys.
func DeriveKey(site Site, d Discriminator) (Key, error) {
	if strings.TrimSpace(string(site)) == "" {
		return Key{}, ErrInvalidSite
	}

	var k Key
	if d.block {
		k.Name = string(site) + "_" + d.name
	} else {
		fp, err := Fingerprint(d.value)
		if err != nil {
			return Key{}, err
		}
		k = Key{Name: string(site), Fingerprint: fp}
	}

	// ContentKey is the longest key written.
	if err := cache.ValidateKey(k.ContentKey()); err != nil {
		return Key{}, fmt.Errorf("fragment: key %q: %w", k.Name, err)
	}
	return k, nil
}
