package testutil

// Bookstore returns the classic JSONPath bookstore document. Each call
// returns a fresh copy that callers may mutate.
func Bookstore() map[string]any {
	return map[string]any{
		"store": map[string]any{
			"book": []any{
				map[string]any{
					"category": "reference",
					"author":   "Nigel Rees",
					"title":    "Sayings of the Century",
					"price":    8.95,
				},
				map[string]any{
					"category": "fiction",
					"author":   "Evelyn Waugh",
					"title":    "Sword of Honour",
					"price":    12.99,
				},
				map[string]any{
					"category": "fiction",
					"author":   "Herman Melville",
					"title":    "Moby Dick",
					"isbn":     "0-553-21311-3",
					"price":    8.99,
				},
				map[string]any{
					"category": "fiction",
					"author":   "J. R. R. Tolkien",
					"title":    "The Lord of the Rings",
					"isbn":     "0-395-19395-8",
					"price":    22.99,
				},
			},
			"bicycle": map[string]any{
				"color": "red",
				"price": 19.95,
			},
		},
	}
}

// BookstoreJSON is Bookstore as a JSON document.
const BookstoreJSON = `{
  "store": {
    "book": [
      {"category": "reference", "author": "Nigel Rees", "title": "Sayings of the Century", "price": 8.95},
      {"category": "fiction", "author": "Evelyn Waugh", "title": "Sword of Honour", "price": 12.99},
      {"category": "fiction", "author": "Herman Melville", "title": "Moby Dick", "isbn": "0-553-21311-3", "price": 8.99},
      {"category": "fiction", "author": "J. R. R. Tolkien", "title": "The Lord of the Rings", "isbn": "0-395-19395-8", "price": 22.99}
    ],
    "bicycle": {"color": "red", "price": 19.95}
  }
}`

// Expected query answers over Bookstore, in document order.
var (
	BookTitles  = []any{"Sayings of the Century", "Sword of Honour", "Moby Dick", "The Lord of the Rings"}
	BookAuthors = []any{"Nigel Rees", "Evelyn Waugh", "Herman Melville", "J. R. R. Tolkien"}
	BookPrices  = []any{8.95, 12.99, 8.99, 22.99}

	// AllPrices is $..price. Keys are stored in sorted order, so the
	// bicycle precedes the books.
	AllPrices = []any{19.95, 8.95, 12.99, 8.99, 22.99}
)
