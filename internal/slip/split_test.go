package slip

import "testing"

func TestSplitKnownPrefix(t *testing.T) {
	table := NewPrefixTable()

	// The full prefix must win over a partial hyphen-based split.
	set, rest := table.SplitSetAndCard("LorwynEclipsed-CardName-#7-M-")
	if set != "LorwynEclipsed" {
		t.Fatalf("set = %q", set)
	}
	if rest != "CardName-#7-M-" {
		t.Fatalf("rest = %q", rest)
	}
}

func TestSplitKnownPrefixWithEmbeddedHyphen(t *testing.T) {
	table := NewPrefixTable()

	set, rest := table.SplitSetAndCard("Avatar:TheLastAirbender:Eternal-Legal-Aang,Avatar-#12-R-NearMint")
	if set != "Avatar:TheLastAirbender:Eternal-Legal" {
		t.Fatalf("set = %q", set)
	}
	if rest != "Aang,Avatar-#12-R-NearMint" {
		t.Fatalf("rest = %q", rest)
	}
}

func TestSplitAnchorFallback(t *testing.T) {
	table := NewPrefixTable()

	cases := []struct {
		name    string
		desc    string
		wantSet string
		wantRem string
	}{
		{
			name:    "lowercase set then capitalized card",
			desc:    "someNewSet-CardName-#44-U-NearMint",
			wantSet: "someNewSet",
			wantRem: "CardName-#44-U-NearMint",
		},
		{
			name:    "continuation word stays on set side",
			desc:    "someSet-Remastered-CardName-#44-U-NearMint",
			wantSet: "someSet-Remastered",
			wantRem: "CardName-#44-U-NearMint",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, rest := table.SplitSetAndCard(tc.desc)
			if set != tc.wantSet || rest != tc.wantRem {
				t.Fatalf("got (%q, %q), want (%q, %q)", set, rest, tc.wantSet, tc.wantRem)
			}
		})
	}
}

func TestSplitNaiveFallback(t *testing.T) {
	table := NewPrefixTable()

	// No collector anchor and no known prefix: first hyphen wins.
	set, rest := table.SplitSetAndCard("mystery-Thing")
	if set != "mystery" || rest != "Thing" {
		t.Fatalf("got (%q, %q)", set, rest)
	}
}

func TestSplitNeverFails(t *testing.T) {
	table := NewPrefixTable()

	cases := []string{"", "NoHyphensAtAll", "-leadinghyphen"}
	for _, desc := range cases {
		set, rest := table.SplitSetAndCard(desc)
		if set == "" {
			t.Fatalf("empty set for %q", desc)
		}
		if desc == "NoHyphensAtAll" && (set != UnknownSet || rest != desc) {
			t.Fatalf("got (%q, %q), want (%q, %q)", set, rest, UnknownSet, desc)
		}
	}
}

func TestPrefixTableExtraEntries(t *testing.T) {
	table := NewPrefixTable("BrandNewSet:Remix")

	set, rest := table.SplitSetAndCard("BrandNewSet:Remix-Card-#1-C-NearMint")
	if set != "BrandNewSet:Remix" || rest != "Card-#1-C-NearMint" {
		t.Fatalf("got (%q, %q)", set, rest)
	}
}
