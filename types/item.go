package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ShowcaseItem is one tile of the showcase grid as supplied by the property pane.
// The pipeline only reads ImageRef; the rest is passed through to the renderer.
type ShowcaseItem struct {
	ImageRef string `yaml:"imageUrl"`
	Title    string `yaml:"title"`

	// Description is a raw HTML fragment. It is rendered without sanitization,
	// the caller is expected to hand in trusted content.
	Description string `yaml:"description"`

	LinkURL  string `yaml:"linkUrl"`
	LinkText string `yaml:"linkText"`
}

// fileRef is the property-pane file picker shape of imageUrl.
type fileRef struct {
	FileAbsoluteURL string `yaml:"fileAbsoluteUrl"`
}

// UnmarshalYAML accepts imageUrl either as a plain string or as the file picker object
// {fileAbsoluteUrl: ...}.
func (i *ShowcaseItem) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ImageURL    yaml.Node `yaml:"imageUrl"`
		Title       string    `yaml:"title"`
		Description string    `yaml:"description"`
		LinkURL     string    `yaml:"linkUrl"`
		LinkText    string    `yaml:"linkText"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	var ref string
	switch raw.ImageURL.Kind {
	case 0:
	case yaml.ScalarNode:
		if err := raw.ImageURL.Decode(&ref); err != nil {
			return err
		}
	case yaml.MappingNode:
		var f fileRef
		if err := raw.ImageURL.Decode(&f); err != nil {
			return err
		}
		ref = f.FileAbsoluteURL
	default:
		return fmt.Errorf("line %d: imageUrl must be a string or a file reference", raw.ImageURL.Line)
	}

	*i = ShowcaseItem{
		ImageRef:    ref,
		Title:       raw.Title,
		Description: raw.Description,
		LinkURL:     raw.LinkURL,
		LinkText:    raw.LinkText,
	}
	return nil
}

// HasContent reports whether the item would render anything at all.
func (i ShowcaseItem) HasContent() bool {
	return i.ImageRef != "" || i.Title != "" || i.Description != "" || i.LinkURL != ""
}

/*
Collection is the ordered item sequence handed to the orchestrator.

Change detection is identity based: a new *Collection triggers a reconciliation pass,
editing Items of an already submitted collection in place does NOT.
Image refs are not guaranteed to be unique.
*/
type Collection struct {
	Items []ShowcaseItem
}

// NewCollection wraps items into a fresh collection (and so a fresh identity).
func NewCollection(items ...ShowcaseItem) *Collection {
	return &Collection{Items: items}
}

// Len is nil safe.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// HasContent is false when the renderer should show the "No Content Added Yet" placeholder.
func (c *Collection) HasContent() bool {
	if c == nil {
		return false
	}
	for _, it := range c.Items {
		if it.HasContent() {
			return true
		}
	}
	return false
}

// Mapping maps an original image URL to its display value.
type Mapping map[string]string
