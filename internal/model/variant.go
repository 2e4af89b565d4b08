package model

import (
	"fmt"
	"strings"
)

// Variant describes one content category. Reactions and comments address an item by
// (Variant.Tag, id), so the registry is the only place that knows concrete types.
type Variant struct {
	Tag     string
	Label   string
	Aliases []string
	// SearchFields are the columns matched by the list "search" parameter.
	SearchFields []string
	HasImage     bool
	// FilterFields maps a query parameter to a column for list filtering.
	FilterFields map[string]string
	// VisibleColumns must all be true for non-staff readers to see a row.
	VisibleColumns []string

	newItem func() ContentItem
	newList func() interface{}
	unpack  func(list interface{}) []ContentItem
}

// New returns a zero value of the variant's model, ready for gorm.
func (v *Variant) New() ContentItem {
	return v.newItem()
}

// NewList returns a pointer to an empty slice of the variant's model for Find.
func (v *Variant) NewList() interface{} {
	return v.newList()
}

// Items converts a slice filled by Find back into ContentItems.
func (v *Variant) Items(list interface{}) []ContentItem {
	return v.unpack(list)
}

func (v *Variant) Table() string {
	return v.newItem().TableName()
}

type variantOption func(*Variant)

func withAliases(aliases ...string) variantOption {
	return func(v *Variant) { v.Aliases = aliases }
}

func withSearch(fields ...string) variantOption {
	return func(v *Variant) { v.SearchFields = fields }
}

func withImage() variantOption {
	return func(v *Variant) { v.HasImage = true }
}

func withVisibility(columns ...string) variantOption {
	return func(v *Variant) { v.VisibleColumns = columns }
}

func withFilter(param, column string) variantOption {
	return func(v *Variant) {
		if v.FilterFields == nil {
			v.FilterFields = make(map[string]string)
		}
		v.FilterFields[param] = column
	}
}

func newVariant[T any, PT interface {
	*T
	ContentItem
}](tag, label string, opts ...variantOption) *Variant {
	v := &Variant{
		Tag:            tag,
		Label:          label,
		SearchFields:   []string{"title"},
		VisibleColumns: []string{"is_published"},
		newItem:        func() ContentItem { return PT(new(T)) },
		newList:        func() interface{} { return &[]T{} },
		unpack: func(list interface{}) []ContentItem {
			rows := *list.(*[]T)
			items := make([]ContentItem, len(rows))
			for i := range rows {
				items[i] = PT(&rows[i])
			}
			return items
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type Registry struct {
	ordered []*Variant
	byName  map[string]*Variant
}

func NewRegistry(variants ...*Variant) *Registry {
	r := &Registry{byName: make(map[string]*Variant)}
	for _, v := range variants {
		r.Register(v)
	}
	return r
}

// Register adds a variant. Later registrations win on tag or alias collisions.
func (r *Registry) Register(v *Variant) {
	r.ordered = append(r.ordered, v)
	r.byName[v.Tag] = v
	for _, alias := range v.Aliases {
		r.byName[alias] = v
	}
}

// Lookup resolves a tag or route alias, case-insensitively.
func (r *Registry) Lookup(name string) (*Variant, bool) {
	v, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

func (r *Registry) All() []*Variant {
	return r.ordered
}

// Variant tags.
const (
	VariantNews             = "news"
	VariantBookInfo         = "bookinfo"
	VariantBookReview       = "bookreview"
	VariantOpinion          = "opinion"
	VariantLiterature       = "literature"
	VariantQA               = "qa"
	VariantTranslation      = "translation"
	VariantHistory          = "history"
	VariantPaper            = "paper"
	VariantClassicBook      = "classicbook"
	VariantLibrary          = "library"
	VariantScripture        = "scripture"
	VariantScriptureChapter = "scripturechapter"
)

// DefaultRegistry returns every content variant the site publishes.
func DefaultRegistry() *Registry {
	return NewRegistry(
		newVariant[News](VariantNews, "News", withImage(), withSearch("title", "content", "author")),
		newVariant[BookInfo](VariantBookInfo, "Book info", withAliases("books", "book_info"), withImage(),
			withSearch("title", "author", "isbn", "publisher")),
		newVariant[BookReview](VariantBookReview, "Book reviews", withAliases("reviews", "book_review"), withImage(),
			withSearch("title", "content"), withFilter("category_id", "category_id")),
		newVariant[Opinion](VariantOpinion, "Opinions", withAliases("opinions"), withImage(),
			withSearch("title", "content", "author")),
		newVariant[Literature](VariantLiterature, "Literature", withImage(), withSearch("title", "content")),
		newVariant[QA](VariantQA, "Q&A", withSearch("title", "content"),
			withVisibility("is_published", "is_approved")),
		newVariant[Translation](VariantTranslation, "Translations", withAliases("translations"), withImage(),
			withSearch("title", "content", "original_title", "original_author")),
		newVariant[History](VariantHistory, "History", withImage(), withSearch("title", "content")),
		newVariant[Paper](VariantPaper, "Papers", withAliases("papers"), withImage()),
		newVariant[ClassicBook](VariantClassicBook, "Classics", withAliases("classics", "classic_book")),
		newVariant[Library](VariantLibrary, "Library", withImage(),
			withSearch("title", "author_intro", "content_intro", "isbn")),
		newVariant[Scripture](VariantScripture, "Scriptures", withAliases("scriptures"), withImage()),
		newVariant[ScriptureChapter](VariantScriptureChapter, "Scripture chapters",
			withAliases("scripture-chapters", "scripture_chapter"), withSearch("title", "content"),
			withFilter("scripture_id", "scripture_id")),
	)
}

// GlobalSearch lists the variants the cross-type search fans out to, the columns
// matched for each and the type name reported on every hit.
var GlobalSearch = []struct {
	Tag    string
	Type   string
	Fields []string
}{
	{VariantNews, "news", []string{"title", "content"}},
	{VariantBookReview, "book_review", []string{"title", "content"}},
	{VariantPaper, "paper", []string{"title"}},
	{VariantOpinion, "opinion", []string{"title", "content"}},
}

// RoomKey names the realtime room of one content item.
func RoomKey(variant string, id uint) string {
	return fmt.Sprintf("%s:%d", variant, id)
}
