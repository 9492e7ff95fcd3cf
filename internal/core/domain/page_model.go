package domain

const (
	// DefaultPageSize is the number of records of a page if not specified.
	DefaultPageSize = 20
	// MaxPageSize is the max number of records that can be requested at once.
	MaxPageSize = 100
)

// Page identifies a window of a paginated list. Numbers start from 1.
type Page struct {
	Number int
	Size   int
}

func NewPage(pageNumber, pageSize int) Page {
	pNumber := 1
	if pageNumber > 0 {
		pNumber = pageNumber
	}

	pSize := DefaultPageSize
	if pageSize > 0 {
		pSize = pageSize
	}
	if pSize > MaxPageSize {
		pSize = MaxPageSize
	}

	return Page{
		Number: pNumber,
		Size:   pSize,
	}
}

// Offset returns the number of records to skip to reach the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Pages returns the number of pages needed to list total records.
func (p Page) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}
