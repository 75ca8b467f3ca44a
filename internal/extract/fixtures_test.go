package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// desktopMexico carries strict anchors with two valid rows and one row
// missing its price.
const desktopMexico = `<html><body>
<div class="travel"><p>You are in <b>Mexico</b> and have $25,000</p></div>
<div class="shopHeader___x1">General Store</div>
<ul>
	<li class="row___a1"><button class="itemNameButton___b2">Xanax</button><span class="displayPrice___c3">$1,000</span><span data-tt-content-type="stock"><span class="sr-only">Stock</span> 12</span></li>
	<li class="row___a1"><button class="itemNameButton___b2">Flowers</button><span class="displayPrice___c3">$45</span><span data-tt-content-type="stock"><span class="sr-only">Stock</span> 200</span></li>
	<li class="row___a1"><button class="itemNameButton___b2">Lighter</button><span data-tt-content-type="stock">Stock 9</span></li>
</ul>
</body></html>`

// buyMexico uses only generic headings and BUY controls: no row or
// header classes a layout can select directly.
const buyMexico = `<html><body>
<h4 class="title___q">Mexico</h4>
<div class="title___hdr">General Store</div>
<div class="item___a"><button class="itemNameButton___n">Xanax</button> <span class="displayPrice___p">$1,000</span> <span data-tt-content-type="stock">Stock 12</span> <button>BUY</button></div>
<div class="item___a"><button class="itemNameButton___n">Flowers</button> <span class="displayPrice___p">$45</span> <span data-tt-content-type="stock">Stock 200</span> <button>BUY</button></div>
</body></html>`

// looseJapan has no strict anchors; items are clickable cards under plain
// shop labels.
const looseJapan = `<html><body>
<p>You are in Japan and have $1,000,000</p>
<nav><button>General Store</button><button>Black Market</button></nav>
<div class="wrap">
	<h4>General Store</h4>
	<div class="grid">
		<div role="button" tabindex="0">Sushi $1,200 Stock: 40</div>
		<div role="button" tabindex="0">Maneki Neko $4,500 Stock: 14</div>
		<div role="button" tabindex="0">Paper Lantern $900 12 in stock</div>
		<div role="button" tabindex="0" style="display: none">Ghost Item $1 Stock: 1</div>
		<div class="promo">Bonus $5 Stock: 3</div>
	</div>
</div>
<div class="wrap">
	<h4>Black Market</h4>
	<div class="grid">
		<button>Katana $31,000 Available: 7<span>Buy</span></button>
		<button>Sake $650 Stock: 300</button>
	</div>
</div>
</body></html>`

func mustDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

// fakeSurface scripts a live page: clicking an element carrying
// data-probe opens the matching overlay, clicking data-close or the
// backdrop restores the base page.
type fakeSurface struct {
	base      string
	current   string
	overlays  map[string]string
	clicks    []string
	backdrops int
	snapErr   error
}

var _ Surface = (*fakeSurface)(nil)

func newFakeSurface(base string, overlays map[string]string) *fakeSurface {
	return &fakeSurface{base: base, current: base, overlays: overlays}
}

func (f *fakeSurface) Snapshot(ctx context.Context) (*goquery.Document, error) {
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return goquery.NewDocumentFromReader(strings.NewReader(f.current))
}

func (f *fakeSurface) Click(ctx context.Context, selector string) error {
	f.clicks = append(f.clicks, selector)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.current))
	if err != nil {
		return err
	}
	el := doc.Find(selector)
	if el.Length() == 0 {
		return fmt.Errorf("no element matches %s", selector)
	}
	if key, ok := el.Attr("data-probe"); ok {
		if ov, ok := f.overlays[key]; ok {
			f.current = strings.Replace(f.base, "</body>", ov+"</body>", 1)
		}
		return nil
	}
	if _, ok := el.Attr("data-close"); ok {
		f.current = f.base
	}
	return nil
}

func (f *fakeSurface) ClickBackdrop(ctx context.Context) error {
	f.backdrops++
	f.current = f.base
	return nil
}

func (f *fakeSurface) overlayOpen() bool {
	return f.current != f.base
}
