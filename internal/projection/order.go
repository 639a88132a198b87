package projection

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// nameOrder compares member names the way a person reading the list expects:
// case and accents are secondary, so "ana", "Ana" and "Ána" sit together.
// A Collator keeps scratch buffers, so each projection call builds its own.
type nameOrder struct {
	c *collate.Collator
}

func newNameOrder() nameOrder {
	return nameOrder{c: collate.New(language.English)}
}

func (o nameOrder) compare(a, b string) int {
	return o.c.CompareString(a, b)
}

func (o nameOrder) less(a, b string) bool {
	return o.compare(a, b) < 0
}
