package csvimport

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Rules for the embedded-pricing micro-grammar. Quantity is taken first,
// then the first matching price rule wins: k-notation before plain numbers.
var (
	quantityPattern = regexp.MustCompile(`\((\d+)\)`)
	// "= 4k", "= 3k5 each", "= 2.5k"
	kPricePattern = regexp.MustCompile(`(?i)=\s*(\d+(?:\.\d+)?)k(\d+)?(?:\s*each)?`)
	// "= 4000", "= 12.5 each"
	plainPricePattern = regexp.MustCompile(`(?i)=\s*(\d+(?:\.\d+)?)(?:\s*each)?`)
	// "Jane Doe 3k each" on the author cell
	authorPricePattern = regexp.MustCompile(`(?i)^(.+?)\s+(\d+(?:\.\d+)?)k?\s+each$`)
)

// Extraction is the result of reading price and quantity out of a title
type Extraction struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// ExtractTitlePrice reads an inline quantity "(n)" and price "= n[k[d]]"
// out of a free-text title fragment. Missing quantity defaults to 1 and a
// missing price to 0. The returned title has both clauses removed.
func ExtractTitlePrice(fragment string) Extraction {
	text := fragment
	ex := Extraction{Quantity: 1}

	if m := quantityPattern.FindStringSubmatchIndex(text); m != nil {
		if n, err := strconv.Atoi(text[m[2]:m[3]]); err == nil {
			ex.Quantity = n
		}
		text = text[:m[0]] + text[m[1]:]
	}

	if m := kPricePattern.FindStringSubmatchIndex(text); m != nil {
		whole, _ := strconv.ParseFloat(text[m[2]:m[3]], 64)
		var frac float64
		if m[4] >= 0 {
			frac, _ = strconv.ParseFloat("0."+text[m[4]:m[5]], 64)
		}
		ex.Price = roundCents((whole + frac) * 1000)
		text = text[:m[0]] + text[m[1]:]
	} else if m := plainPricePattern.FindStringSubmatchIndex(text); m != nil {
		ex.Price, _ = strconv.ParseFloat(text[m[2]:m[3]], 64)
		text = text[:m[0]] + text[m[1]:]
	}

	ex.Title = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	return ex
}

// splitAuthorPrice strips a trailing "<number>k? each" from an author cell.
// The number is always read in thousands.
func splitAuthorPrice(author string) (string, float64) {
	m := authorPricePattern.FindStringSubmatch(author)
	if m == nil {
		return author, 0
	}
	n, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return author, 0
	}
	return strings.TrimSpace(m[1]), roundCents(n * 1000)
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}
