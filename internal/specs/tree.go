package specs

// Category maps subcategory names to specifications in insertion order.
// The empty subcategory means "no subcategory".
type Category struct {
	name  string
	keys  []string
	specs map[string]Specification
}

func newCategory(name string) *Category {
	return &Category{name: name, specs: make(map[string]Specification)}
}

func (c *Category) Name() string { return c.name }

// Subcategories returns subcategory names in insertion order.
func (c *Category) Subcategories() []string {
	return append([]string(nil), c.keys...)
}

// Get returns the specification stored under sub.
func (c *Category) Get(sub string) (Specification, bool) {
	s, ok := c.specs[sub]
	return s, ok
}

func (c *Category) Len() int { return len(c.keys) }

// set stores spec under sub. A repeated key keeps its original position.
func (c *Category) set(sub string, spec Specification) {
	if _, ok := c.specs[sub]; !ok {
		c.keys = append(c.keys, sub)
	}
	c.specs[sub] = spec
}

// Section maps category names to categories in insertion order.
type Section struct {
	id         SectionID
	keys       []string
	categories map[string]*Category
}

func newSection(id SectionID) *Section {
	return &Section{id: id, categories: make(map[string]*Category)}
}

func (s *Section) ID() SectionID { return s.id }

func (s *Section) Name() string { return s.id.String() }

// Categories returns the categories in insertion order.
func (s *Section) Categories() []*Category {
	out := make([]*Category, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.categories[k])
	}
	return out
}

// Category returns the named category.
func (s *Section) Category(name string) (*Category, bool) {
	c, ok := s.categories[name]
	return c, ok
}

func (s *Section) category(name string) *Category {
	c, ok := s.categories[name]
	if !ok {
		c = newCategory(name)
		s.categories[name] = c
		s.keys = append(s.keys, name)
	}
	return c
}

// Tree is the mutable section map used while building a document.
type Tree struct {
	order    []SectionID
	sections map[SectionID]*Section
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{sections: make(map[SectionID]*Section)}
}

func (t *Tree) section(id SectionID) *Section {
	s, ok := t.sections[id]
	if !ok {
		s = newSection(id)
		t.sections[id] = s
		t.order = append(t.order, id)
	}
	return s
}

// Register makes sure the section and category exist without adding a
// specification.
func (t *Tree) Register(id SectionID, category string) {
	t.section(id).category(category)
}

// Put stores spec at (section, category, sub).
func (t *Tree) Put(id SectionID, category, sub string, spec Specification) {
	t.section(id).category(category).set(sub, spec)
}

// Merge unions other into t. Categories present in both keep the union of
// their subcategories; a repeated subcategory takes other's value.
func (t *Tree) Merge(other *Tree) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		src := other.sections[id]
		dst := t.section(id)
		for _, name := range src.keys {
			from := src.categories[name]
			to := dst.category(name)
			for _, sub := range from.keys {
				to.set(sub, from.specs[sub])
			}
		}
	}
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	out := NewTree()
	out.Merge(t)
	return out
}

// Sections returns the sections in insertion order.
func (t *Tree) Sections() []*Section {
	out := make([]*Section, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.sections[id])
	}
	return out
}

// Section returns the section with the given ID.
func (t *Tree) Section(id SectionID) (*Section, bool) {
	s, ok := t.sections[id]
	return s, ok
}

// Lookup returns the specification at the given address.
func (t *Tree) Lookup(id SectionID, category, sub string) (Specification, bool) {
	s, ok := t.sections[id]
	if !ok {
		return Specification{}, false
	}
	c, ok := s.categories[category]
	if !ok {
		return Specification{}, false
	}
	return c.Get(sub)
}

// Len counts the specifications in the tree.
func (t *Tree) Len() int {
	n := 0
	for _, s := range t.sections {
		for _, c := range s.categories {
			n += len(c.keys)
		}
	}
	return n
}

// IsEmpty reports whether the tree has no sections at all.
func (t *Tree) IsEmpty() bool { return len(t.order) == 0 }
