package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
)

// ReportData is the fully grouped and sorted input for the pull-sheet page.
type ReportData struct {
	OrderNumber string
	TotalCards  int
	TotalValue  float64
	LineItems   int
	Sections    []ColorSection
}

type ColorSection struct {
	Color    string
	Total    int
	Rarities []RarityGroup
}

type RarityGroup struct {
	Code  string
	Name  string
	Total int
	Cards []CardView
}

// CardView wraps a card with its page-wide index, used by the pull-progress
// checkboxes to key localStorage.
type CardView struct {
	internal.Card
	Index int
}

// BuildReport groups cards by color then rarity. Colors follow the WUBRG
// order, rarities run mythic to special, and within a rarity the variant
// printings sort ahead of regular ones so special treatments pull together.
func BuildReport(cards []internal.Card, orderNumber string) ReportData {
	data := ReportData{
		OrderNumber: orderNumber,
		LineItems:   len(cards),
	}

	byColor := make(map[string]map[internal.Rarity][]internal.Card)
	for _, card := range cards {
		data.TotalCards += card.Quantity
		data.TotalValue += card.TotalPrice
		if byColor[card.Color] == nil {
			byColor[card.Color] = make(map[internal.Rarity][]internal.Card)
		}
		byColor[card.Color][card.Rarity] = append(byColor[card.Color][card.Rarity], card)
	}

	colors := make([]string, 0, len(byColor))
	for color := range byColor {
		colors = append(colors, color)
	}
	sort.Slice(colors, func(i, j int) bool {
		return colorRank(colors[i]) < colorRank(colors[j])
	})

	index := 0
	for _, color := range colors {
		section := ColorSection{Color: color}

		rarities := make([]internal.Rarity, 0, len(byColor[color]))
		for rarity := range byColor[color] {
			rarities = append(rarities, rarity)
		}
		sort.Slice(rarities, func(i, j int) bool {
			return rarityRank(rarities[i]) < rarityRank(rarities[j])
		})

		for _, rarity := range rarities {
			group := RarityGroup{
				Code: string(rarity),
				Name: rarityName(rarity),
			}
			cardsInGroup := byColor[color][rarity]
			sort.SliceStable(cardsInGroup, func(i, j int) bool {
				vi, vj := cardsInGroup[i].Variant != nil, cardsInGroup[j].Variant != nil
				if vi != vj {
					return vi
				}
				return cardsInGroup[i].CardName < cardsInGroup[j].CardName
			})
			for _, card := range cardsInGroup {
				group.Total += card.Quantity
				group.Cards = append(group.Cards, CardView{Card: card, Index: index})
				index++
			}
			section.Total += group.Total
			section.Rarities = append(section.Rarities, group)
		}

		data.Sections = append(data.Sections, section)
	}

	return data
}

func colorRank(color string) int {
	if rank, ok := internal.ColorOrder[color]; ok {
		return rank
	}
	return 99
}

func rarityRank(rarity internal.Rarity) int {
	if rank, ok := internal.RarityOrder[rarity]; ok {
		return rank
	}
	return 99
}

func rarityName(rarity internal.Rarity) string {
	if name, ok := internal.RarityNames[rarity]; ok {
		return name
	}
	return string(rarity)
}

// RenderHTML renders the pull sheet for the given cards.
func RenderHTML(cards []internal.Card, orderNumber string) ([]byte, error) {
	data := BuildReport(cards, orderNumber)

	var buf bytes.Buffer
	if err := pullSheetTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTMLReport renders the pull sheet and writes it to path, creating the
// parent directory when needed.
func WriteHTMLReport(cards []internal.Card, orderNumber, path string) error {
	blob, err := RenderHTML(cards, orderNumber)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

var pullSheetTemplate = template.Must(template.New("pullsheet").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>MTG Order - Organized by Color &amp; Rarity</title>
<style>
* { box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 20px; background: #1a1a2e; color: #eee; }
h1 { text-align: center; color: #fff; margin-bottom: 10px; }
.order-info { text-align: center; color: #aaa; margin-bottom: 20px; }
.summary { display: flex; justify-content: center; gap: 30px; margin-bottom: 30px; flex-wrap: wrap; }
.summary-item { background: #16213e; padding: 15px 25px; border-radius: 8px; text-align: center; }
.summary-item .number { font-size: 2em; font-weight: bold; color: #e94560; }
.summary-item .label { color: #aaa; font-size: 0.9em; }
.color-section { margin-bottom: 30px; background: #16213e; border-radius: 12px; overflow: hidden; }
.color-header { padding: 15px 20px; font-size: 1.4em; font-weight: bold; display: flex; align-items: center; gap: 10px; }
.color-pip { width: 24px; height: 24px; border-radius: 50%; border: 2px solid rgba(255,255,255,0.3); }
.color-White { background: linear-gradient(135deg, #f8f6d8, #e8e4c9); }
.color-Blue { background: linear-gradient(135deg, #0e68ab, #1a9bc7); }
.color-Black { background: linear-gradient(135deg, #393939, #1a1a1a); }
.color-Red { background: linear-gradient(135deg, #d32029, #f44336); }
.color-Green { background: linear-gradient(135deg, #00733e, #2e7d32); }
.color-Multicolor { background: linear-gradient(135deg, #c9a227, #ffd700); }
.color-Colorless { background: linear-gradient(135deg, #9e9e9e, #bdbdbd); }
.color-Land { background: linear-gradient(135deg, #795548, #a1887f); }
.header-White { background: linear-gradient(90deg, rgba(248,246,216,0.3), transparent); }
.header-Blue { background: linear-gradient(90deg, rgba(14,104,171,0.3), transparent); }
.header-Black { background: linear-gradient(90deg, rgba(57,57,57,0.5), transparent); }
.header-Red { background: linear-gradient(90deg, rgba(211,32,41,0.3), transparent); }
.header-Green { background: linear-gradient(90deg, rgba(0,115,62,0.3), transparent); }
.header-Multicolor { background: linear-gradient(90deg, rgba(201,162,39,0.3), transparent); }
.header-Colorless { background: linear-gradient(90deg, rgba(158,158,158,0.3), transparent); }
.header-Land { background: linear-gradient(90deg, rgba(121,85,72,0.3), transparent); }
.rarity-section { padding: 10px 20px; }
.rarity-header { font-size: 1.1em; font-weight: 600; padding: 8px 0; border-bottom: 1px solid rgba(255,255,255,0.1); margin-bottom: 10px; }
.rarity-M { color: #ff9800; }
.rarity-R { color: #ffd700; }
.rarity-U { color: #90caf9; }
.rarity-C { color: #aaa; }
.rarity-S { color: #ce93d8; }
.card-list { display: grid; gap: 8px; }
.card-item { display: grid; grid-template-columns: 40px 1fr auto; gap: 15px; padding: 10px 15px; background: rgba(255,255,255,0.05); border-radius: 6px; align-items: center; cursor: pointer; }
.card-item:hover { background: rgba(255,255,255,0.1); }
.card-item.checked { opacity: 0.5; }
.card-item.checked .card-name { text-decoration: line-through; }
.card-qty { font-weight: bold; font-size: 1.2em; color: #e94560; text-align: center; }
.card-info { display: flex; flex-direction: column; gap: 2px; }
.card-name { font-weight: 500; }
.card-details { font-size: 0.85em; color: #888; }
.card-foil { color: #ffd700; font-weight: bold; }
.card-language { color: #ff6b6b; font-weight: bold; font-size: 0.9em; }
.card-price { text-align: right; color: #4caf50; font-weight: 500; }
.nav { position: sticky; top: 0; background: #1a1a2e; padding: 10px 0; margin-bottom: 20px; z-index: 100; border-bottom: 1px solid #333; }
.nav-links { display: flex; justify-content: center; gap: 10px; flex-wrap: wrap; }
.nav-link { padding: 8px 16px; border-radius: 20px; text-decoration: none; color: #fff; font-weight: 500; }
.progress-bar { width: 100%; height: 8px; background: #333; border-radius: 4px; margin-bottom: 20px; overflow: hidden; }
.progress-fill { height: 100%; background: linear-gradient(90deg, #4caf50, #8bc34a); border-radius: 4px; }
.progress-text { text-align: center; color: #aaa; margin-bottom: 10px; font-size: 0.9em; }
#card-preview { display: none; position: fixed; z-index: 1000; pointer-events: none; border-radius: 12px; box-shadow: 0 8px 32px rgba(0,0,0,0.5); max-width: 250px; }
#card-preview img { display: block; width: 100%; height: auto; border-radius: 12px; }
@media print {
  body { background: #fff; color: #000; }
  .color-section { background: #f5f5f5; break-inside: avoid; }
  .card-item { background: #eee; }
  .nav, .progress-bar, .progress-text { display: none; }
}
</style>
</head>
<body>
<div id="card-preview"><img src="" alt="Card Preview"></div>

<h1>MTG Order - Pull Sheet</h1>
<div class="order-info">{{if .OrderNumber}}{{.OrderNumber}}{{else}}TCGplayer Order{{end}}</div>

<div class="progress-text">Progress: <span id="progress-count">0</span> / {{.LineItems}} items pulled</div>
<div class="progress-bar"><div class="progress-fill" id="progress-fill" style="width: 0%"></div></div>

<div class="summary">
  <div class="summary-item"><div class="number">{{.TotalCards}}</div><div class="label">Total Cards</div></div>
  <div class="summary-item"><div class="number">${{printf "%.2f" .TotalValue}}</div><div class="label">Total Value</div></div>
  <div class="summary-item"><div class="number">{{.LineItems}}</div><div class="label">Line Items</div></div>
</div>

<nav class="nav">
  <div class="nav-links">
{{range .Sections}}    <a href="#{{.Color}}" class="nav-link color-{{.Color}}">{{.Color}}</a>
{{end}}  </div>
</nav>

{{range .Sections}}<div class="color-section" id="{{.Color}}">
  <div class="color-header header-{{.Color}}"><span class="color-pip color-{{.Color}}"></span>{{.Color}} ({{.Total}} cards)</div>
{{range .Rarities}}  <div class="rarity-section">
    <div class="rarity-header rarity-{{.Code}}">{{.Name}} ({{.Total}})</div>
    <div class="card-list">
{{range .Cards}}      <div class="card-item" data-index="{{.Index}}"{{if .ImageURL}} data-image="{{.ImageURL}}"{{end}} onclick="toggleCard(this)">
        <div class="card-qty">{{.Quantity}}x</div>
        <div class="card-info">
          <div class="card-name">{{.CardName}}{{if .Variant}} ({{.Variant}}){{end}}{{if .IsFoil}}<span class="card-foil"> &#9733; FOIL</span>{{end}}{{if .Language}}<span class="card-language"> [{{.Language}}]</span>{{end}}</div>
          <div class="card-details">{{.SetName}} #{{.CollectorNumber}} - {{.Condition}}</div>
        </div>
        <div class="card-price">${{printf "%.2f" .TotalPrice}}</div>
      </div>
{{end}}    </div>
  </div>
{{end}}</div>
{{end}}
<script>
const totalItems = {{.LineItems}};

function updateProgress() {
  const checked = document.querySelectorAll('.card-item.checked').length;
  document.getElementById('progress-count').textContent = checked;
  document.getElementById('progress-fill').style.width = (checked / totalItems * 100) + '%';
}

function toggleCard(element) {
  element.classList.toggle('checked');
  const index = element.dataset.index;
  if (element.classList.contains('checked')) {
    localStorage.setItem('card-' + index, 'checked');
  } else {
    localStorage.removeItem('card-' + index);
  }
  updateProgress();
}

document.querySelectorAll('.card-item').forEach((item) => {
  if (localStorage.getItem('card-' + item.dataset.index) === 'checked') {
    item.classList.add('checked');
  }
});
updateProgress();

const preview = document.getElementById('card-preview');
const previewImg = preview.querySelector('img');
document.querySelectorAll('.card-item[data-image]').forEach((item) => {
  item.addEventListener('mouseenter', () => {
    previewImg.src = item.dataset.image;
    preview.style.display = 'block';
  });
  item.addEventListener('mousemove', (e) => {
    const padding = 20;
    let x = e.clientX + padding;
    let y = e.clientY - 100;
    if (x + 260 > window.innerWidth) { x = e.clientX - 260 - padding; }
    if (y < 10) { y = 10; }
    if (y + 360 > window.innerHeight) { y = window.innerHeight - 360; }
    preview.style.left = x + 'px';
    preview.style.top = y + 'px';
  });
  item.addEventListener('mouseleave', () => { preview.style.display = 'none'; });
});
</script>
</body>
</html>
`))
