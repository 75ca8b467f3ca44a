package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooseScanner_Scan(t *testing.T) {
	candidates := LooseScanner{}.Scan(mustDoc(t, looseJapan))

	require.Len(t, candidates, 5)

	expected := []Item{
		{Name: "Sushi", Cost: 1200, Stock: 40, Shop: ShopGeneral},
		{Name: "Maneki Neko", Cost: 4500, Stock: 14, Shop: ShopGeneral},
		{Name: "Paper Lantern", Cost: 900, Stock: 12, Shop: ShopGeneral},
		{Name: "Katana", Cost: 31000, Stock: 7, Shop: ShopBlack},
		{Name: "Sake", Cost: 650, Stock: 300, Shop: ShopBlack},
	}
	for i, c := range candidates {
		assert.True(t, c.Complete(), c.Text)
		assert.Equal(t, expected[i], c.Item())
		assert.NotEmpty(t, c.Path)
	}
}

func TestLooseScanner_OuterControlOnly(t *testing.T) {
	markup := `<html><body>
		<h3>Arms Dealer</h3>
		<a href="#item-1"><div>Flak Jacket</div><div>$12,000</div><button>Stock 5</button></a>
	</body></html>`

	candidates := LooseScanner{}.Scan(mustDoc(t, markup))

	require.Len(t, candidates, 1)
	assert.Equal(t, Item{Name: "Flak Jacket", Cost: 12000, Stock: 5, Shop: ShopArms}, candidates[0].Item())
}

func TestLooseScanner_DuplicateHeadersKeepFirst(t *testing.T) {
	markup := `<html><body>
		<h3>General Store</h3>
		<button>Rose $20 Stock: 3</button>
		<h3>General Store</h3>
		<button>Tulip $30 Stock: 4</button>
	</body></html>`

	candidates := LooseScanner{}.Scan(mustDoc(t, markup))

	require.Len(t, candidates, 2)
	assert.Equal(t, ShopGeneral, candidates[0].Shop)
	assert.Equal(t, ShopGeneral, candidates[1].Shop)
}

func TestLooseScanner_NoLabels(t *testing.T) {
	markup := `<html><body><button>Rose $20 Stock: 3</button></body></html>`
	assert.Empty(t, LooseScanner{}.Scan(mustDoc(t, markup)))
}

func TestCardName(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{"Xanax $1,000 Stock: 12", "Xanax"},
		{"Black Market Xanax: $1,000", "Xanax"},
		{"Buy - Dozen Roses | $300", "Dozen Roses"},
		{"$950 Stock 4 Teddy Bear Plushie Buy", "Teddy Bear Plushie"},
		{"$950 Stock 4", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, cardName(tc.text), tc.text)
	}
}

func TestCandidateIncomplete(t *testing.T) {
	c := parseCard(ShopGeneral, "html > body", "$500")
	assert.False(t, c.Complete())
	assert.True(t, c.HasCost)
	assert.False(t, c.HasStock)
	assert.Empty(t, c.Name)
}
