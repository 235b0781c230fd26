package slides

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var genericName = regexp.MustCompile(`^slide_(\d+)\.png$`)

// Resource is a resolved slide. Exactly one of Path or URL is set.
type Resource struct {
	Ref  string
	Path string
	URL  string
}

// Remote reports whether the slide still needs to be fetched.
func (r Resource) Remote() bool {
	return r.URL != ""
}

// NotFoundError is returned when no location matches a slide reference.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("slide not found: %s", e.Ref)
}

// Resolver maps logical slide references to files or URLs. Freshly
// rasterized slides in the staging directory win over published copies.
type Resolver struct {
	stagingDir   string
	publishedDir string
}

// NewResolver creates a resolver over the given staging and published directories.
func NewResolver(stagingDir, publishedDir string) *Resolver {
	return &Resolver{
		stagingDir:   stagingDir,
		publishedDir: publishedDir,
	}
}

// Resolve returns the first matching location for ref. known is the ordered
// list of slide file names for the current request; generic slide_N.png
// references index into it (1-based).
func (r *Resolver) Resolve(ref string, known []string) (Resource, error) {
	if ref == "" {
		return Resource{}, &NotFoundError{Ref: ref}
	}

	if fileExists(ref) {
		return Resource{Ref: ref, Path: ref}, nil
	}

	if p, ok := r.inStaging(ref); ok {
		return Resource{Ref: ref, Path: p}, nil
	}

	if m := genericName.FindStringSubmatch(ref); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= len(known) {
			actual := known[n-1]
			if p, ok := r.inStaging(actual); ok {
				return Resource{Ref: ref, Path: p}, nil
			}
			if p, ok := r.inPublished(actual); ok {
				return Resource{Ref: ref, Path: p}, nil
			}
		}
	}

	if p, ok := r.inPublished(ref); ok {
		return Resource{Ref: ref, Path: p}, nil
	}

	if isURL(ref) {
		return Resource{Ref: ref, URL: ref}, nil
	}

	for _, k := range known {
		if k != ref && !strings.HasSuffix(k, ref) {
			continue
		}
		if p, ok := r.inStaging(k); ok {
			return Resource{Ref: ref, Path: p}, nil
		}
		if isURL(k) {
			return Resource{Ref: ref, URL: k}, nil
		}
		if fileExists(k) {
			return Resource{Ref: ref, Path: k}, nil
		}
	}

	return Resource{}, &NotFoundError{Ref: ref}
}

func (r *Resolver) inStaging(name string) (string, bool) {
	return lookup(r.stagingDir, name)
}

func (r *Resolver) inPublished(name string) (string, bool) {
	return lookup(r.publishedDir, name)
}

func lookup(dir, name string) (string, bool) {
	if dir == "" {
		return "", false
	}
	p := filepath.Join(dir, name)
	if fileExists(p) {
		return p, true
	}
	return "", false
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
