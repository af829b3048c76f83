package cart

import (
	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/internal/catalog"
	"github.com/praytees/storefront/pkg/money"
)

// Ledger is the ordered set of line items of one cart. It is not safe for
// concurrent use; Service serialises access per session.
type Ledger struct {
	resolver *catalog.Resolver
	items    []LineItem
	pos      map[Key]int
}

// NewLedger returns an empty ledger pricing new lines through resolver.
func NewLedger(resolver *catalog.Resolver) *Ledger {
	if resolver == nil {
		resolver = catalog.NewResolver(nil, nil)
	}
	return &Ledger{resolver: resolver, pos: map[Key]int{}}
}

// Restore rebuilds a ledger from a snapshot. Lines with a non-positive
// quantity are dropped and repeated keys are merged into the first one.
func Restore(resolver *catalog.Resolver, snap Snapshot) *Ledger {
	l := NewLedger(resolver)
	for _, item := range snap.Items {
		if item.Quantity <= 0 || item.ProductID == "" {
			continue
		}
		if i, ok := l.pos[item.Key()]; ok {
			l.items[i].Quantity += item.Quantity
			continue
		}
		l.append(item)
	}
	return l
}

// Snapshot copies the current lines.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{Items: l.Items()}
}

// Add increments the line for (p, size, color), creating it with quantity 1
// when absent. New lines get their price, variant id, name and image now.
func (l *Ledger) Add(p *catalog.Product, size, color string) LineItem {
	key := NewKey(p.ID.String(), size, color)
	if i, ok := l.pos[key]; ok {
		l.items[i].Quantity++
		return l.items[i]
	}
	item := l.newLine(p, key.Size, key.Color)
	item.Quantity = 1
	l.append(item)
	return item
}

// Switch moves the line at from to a new size and color, re-resolving price
// and variant id. When the target line already exists the quantities merge
// into it and its captured price is kept.
func (l *Ledger) Switch(p *catalog.Product, from Key, size, color string) (LineItem, bool) {
	i, ok := l.pos[from]
	if !ok {
		return LineItem{}, false
	}
	to := NewKey(from.ProductID, size, color)
	if to == from {
		return l.items[i], true
	}
	qty := l.items[i].Quantity
	if j, exists := l.pos[to]; exists {
		l.items[j].Quantity += qty
		merged := l.items[j]
		l.Remove(from)
		return merged, true
	}
	item := l.newLine(p, to.Size, to.Color)
	item.Quantity = qty
	l.items[i] = item
	delete(l.pos, from)
	l.pos[to] = i
	return item, true
}

// Remove deletes the line for key. Absent keys are ignored.
func (l *Ledger) Remove(key Key) {
	i, ok := l.pos[key]
	if !ok {
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	delete(l.pos, key)
	for j := i; j < len(l.items); j++ {
		l.pos[l.items[j].Key()] = j
	}
}

// SetQuantity overwrites the quantity for key. q <= 0 removes the line.
func (l *Ledger) SetQuantity(key Key, q int) {
	if q <= 0 {
		l.Remove(key)
		return
	}
	if i, ok := l.pos[key]; ok {
		l.items[i].Quantity = q
	}
}

func (l *Ledger) Clear() {
	l.items = nil
	l.pos = map[Key]int{}
}

// Total is the sum of price times quantity rounded to cents.
func (l *Ledger) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range l.items {
		sum = sum.Add(item.Subtotal())
	}
	return money.Round(sum)
}

// Items returns the lines in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Count is the total quantity across all lines.
func (l *Ledger) Count() int {
	n := 0
	for _, item := range l.items {
		n += item.Quantity
	}
	return n
}

func (l *Ledger) Contains(key Key) bool {
	_, ok := l.pos[key]
	return ok
}

func (l *Ledger) Get(key Key) (LineItem, bool) {
	i, ok := l.pos[key]
	if !ok {
		return LineItem{}, false
	}
	return l.items[i], true
}

func (l *Ledger) append(item LineItem) {
	l.pos[item.Key()] = len(l.items)
	l.items = append(l.items, item)
}

func (l *Ledger) newLine(p *catalog.Product, size, color string) LineItem {
	idx := l.resolver.Indexes().Get(p)
	variantID, ok := idx.VariantID(size, color)
	if !ok {
		variantID = catalog.FallbackVariantID(p.Name)
	}
	image := p.Image
	if url, ok := idx.ColorImage(color); ok {
		image = url
	}
	return LineItem{
		ProductID: p.ID.String(),
		Name:      p.Name,
		Size:      size,
		Color:     color,
		Image:     image,
		Price:     l.resolver.Resolve(p, size, color),
		VariantID: variantID,
	}
}
