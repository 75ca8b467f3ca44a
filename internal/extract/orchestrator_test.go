package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Probe:       true,
		ProbeConfig: ProbeConfig{Attempts: 3, Interval: time.Millisecond},
	}
}

func TestExtractor_StrictTier(t *testing.T) {
	e := NewExtractor(newFakeSurface(desktopMexico, nil), testOptions())

	batch := e.Extract(context.Background())

	assert.True(t, batch.Valid())
	assert.Equal(t, Location("Mexico"), batch.Location)
	assert.Equal(t, TierStrict, batch.Tier)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, "Xanax", batch.Items[0].Name)
	assert.Equal(t, "Flowers", batch.Items[1].Name)
}

func TestExtractor_StrictTierFromBuyControls(t *testing.T) {
	e := NewExtractor(newFakeSurface(buyMexico, nil), testOptions())

	batch := e.ExtractDocument(context.Background(), mustDoc(t, buyMexico))

	assert.Equal(t, TierStrict, batch.Tier)
	assert.Equal(t, Location("Mexico"), batch.Location)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, "Xanax", batch.Items[0].Name)
}

func TestExtractor_LooseTier(t *testing.T) {
	e := NewExtractor(newFakeSurface(looseJapan, nil), testOptions())

	batch := e.Extract(context.Background())

	assert.True(t, batch.Valid())
	assert.Equal(t, Location("Japan"), batch.Location)
	assert.Equal(t, TierLooseProbe, batch.Tier)
	assert.Len(t, batch.Items, 5)
}

func TestExtractor_LooseBelowMinimumFails(t *testing.T) {
	markup := strings.Replace(looseJapan, `<button>Sake $650 Stock: 300</button>`, "", 1)
	e := NewExtractor(newFakeSurface(markup, nil), testOptions())

	batch := e.Extract(context.Background())

	assert.False(t, batch.Valid())
	assert.Equal(t, TierNone, batch.Tier)
	assert.Equal(t, Location("Japan"), batch.Location)
	assert.Empty(t, batch.Items)
}

func TestExtractor_LooseMinYieldConfigurable(t *testing.T) {
	markup := strings.Replace(looseJapan, `<button>Sake $650 Stock: 300</button>`, "", 1)
	opts := testOptions()
	opts.LooseMinYield = 4
	e := NewExtractor(newFakeSurface(markup, nil), opts)

	batch := e.Extract(context.Background())

	assert.Equal(t, TierLooseProbe, batch.Tier)
	assert.Len(t, batch.Items, 4)
}

func TestExtractor_ProbeCompletesLooseBatch(t *testing.T) {
	markup := strings.Replace(looseJapan,
		`<button>Sake $650 Stock: 300</button>`,
		`<button data-probe="bear">$500</button>`, 1)
	overlays := map[string]string{
		"bear": `<div role="dialog"><h3>Teddy Bear</h3><p>$500</p><p>Stock 17</p><button data-close aria-label="Close">×</button></div>`,
	}

	surface := newFakeSurface(markup, overlays)
	batch := NewExtractor(surface, testOptions()).Extract(context.Background())

	require.Equal(t, TierLooseProbe, batch.Tier)
	require.Len(t, batch.Items, 5)
	assert.Equal(t, Item{Name: "Teddy Bear", Cost: 500, Stock: 17, Shop: ShopBlack}, batch.Items[4])
	assert.False(t, surface.overlayOpen())

	opts := testOptions()
	opts.Probe = false
	surface = newFakeSurface(markup, overlays)
	batch = NewExtractor(surface, opts).Extract(context.Background())

	assert.Equal(t, TierNone, batch.Tier)
	assert.Empty(t, surface.clicks)
}

func TestExtractor_UnresolvedLocation(t *testing.T) {
	markup := strings.Replace(desktopMexico, `<p>You are in <b>Mexico</b> and have $25,000</p>`, "", 1)
	e := NewExtractor(newFakeSurface(markup, nil), testOptions())

	batch := e.Extract(context.Background())

	assert.False(t, batch.Valid())
	assert.Equal(t, TierNone, batch.Tier)
	assert.Equal(t, Location(""), batch.Location)
}

func TestExtractor_SnapshotFailure(t *testing.T) {
	surface := newFakeSurface(desktopMexico, nil)
	surface.snapErr = errors.New("target closed")

	batch := NewExtractor(surface, testOptions()).Extract(context.Background())

	assert.Equal(t, TierNone, batch.Tier)
	assert.False(t, batch.Valid())
}

func TestExtractor_DedupeLastWins(t *testing.T) {
	markup := `<html><body>
	<p>You are in Hawaii and have $10</p>
	<div class="shopHeader___h">General Store</div>
	<div class="row___r"><button class="itemNameButton___n">Ukulele</button><span class="displayPrice___p">$1,000</span><span data-tt-content-type="stock">Stock 12</span></div>
	<div class="row___r"><button class="itemNameButton___n">Orchid</button><span class="displayPrice___p">$70</span><span data-tt-content-type="stock">Stock 3</span></div>
	<div class="row___r"><button class="itemNameButton___n">UKULELE</button><span class="displayPrice___p">$1,100</span><span data-tt-content-type="stock">Stock 10</span></div>
	</body></html>`

	batch := NewExtractor(newFakeSurface(markup, nil), testOptions()).Extract(context.Background())

	require.Len(t, batch.Items, 2)
	assert.Equal(t, Item{Name: "UKULELE", Cost: 1100, Stock: 10, Shop: ShopGeneral}, batch.Items[0])
	assert.Equal(t, "Orchid", batch.Items[1].Name)
}

func TestDedupe(t *testing.T) {
	items := []Item{
		{Name: "A", Cost: 1, Shop: ShopGeneral},
		{Name: "A", Cost: 1, Shop: ShopBlack},
		{Name: "a", Cost: 2, Shop: ShopGeneral},
	}

	out := dedupe(items)

	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].Cost)
	assert.Equal(t, ShopBlack, out[1].Shop)
}

func TestExtractor_ProbeResultsReusedAcrossPasses(t *testing.T) {
	markup := strings.Replace(looseJapan,
		`<button>Sake $650 Stock: 300</button>`,
		`<button data-probe="bear">$500</button>`, 1)
	overlays := map[string]string{
		"bear": `<div role="dialog"><h3>Teddy Bear</h3><p>$500</p><p>Stock 17</p><button data-close aria-label="Close">×</button></div>`,
	}
	surface := newFakeSurface(markup, overlays)
	e := NewExtractor(surface, testOptions())

	first := e.Extract(context.Background())
	clicks := len(surface.clicks)
	second := e.Extract(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, clicks, len(surface.clicks), "unchanged candidate should not be probed again")

	// A changed card is probed afresh
	surface.base = strings.Replace(markup, `data-probe="bear">$500`, `data-probe="bear">$550`, 1)
	surface.current = surface.base
	e.Extract(context.Background())
	assert.Greater(t, len(surface.clicks), clicks)
}
