package schema

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// Sample MES extract: French headers, time-of-day and duration columns,
// sparse incident column.
var mesCSV = []byte(`Poste,Nom,Date,Heure Début,Heure Fin,Temps Prévu,Temps Réel,Aléas Industriels,Nombre pièces,Contrôlé
1,Découpe,2025-11-03,08:00,09:00,01:00:00,01:05:00,,17,oui
1,Découpe,2025-11-03,09:00,10:10,01:00:00,01:10:00,,16,oui
2,Perçage,2025-11-03,08:30,09:45,01:15:00,01:15:00,Panne foret,15,non
2,Perçage,2025-11-03,10:00,11:20,01:15:00,01:20:00,,18,oui
3,Peinture,2025-11-03,11:00,13:00,01:30:00,02:00:00,,14,oui
3,Peinture,2025-11-04,08:00,09:40,01:30:00,01:40:00,N/A,17,oui
4,Assemblage,2025-11-04,09:00,11:30,01:45:00,02:30:00,Retard pièce,12,non
4,Assemblage,2025-11-04,13:00,15:00,01:45:00,02:00:00,,15,oui
5,Contrôle,2025-11-04,15:00,17:00,02:00:00,02:00:00,,16,oui
5,Contrôle,2025-11-05,08:00,10:05,02:00:00,02:05:00,,19,oui
`)

// Sample PLM extract with decimal-comma costs and a unique part code.
var plmCSV = []byte(`Code / Référence,Désignation,Fournisseur,Criticité,Coût achat pièce (€),Masse (kg)
P-0001,Rivet,Fournisseur A,1,"2,50","0,01"
P-0002,Longeron,Fournisseur B,3,"1250,00","12,40"
P-0003,Panneau,Fournisseur A,2,"480,75","3,10"
P-0004,Vérin,Fournisseur C,4,"3100,00","8,75"
P-0005,Capteur,Fournisseur B,3,"220,00","0,30"
P-0006,Joint,Fournisseur A,1,"4,20","0,02"
P-0007,Pompe,Fournisseur C,4,"2750,50","6,60"
P-0008,Câble,Fournisseur B,2,"35,90","0,80"
P-0009,Support,Fournisseur A,2,"120,00","1,20"
P-0010,Charnière,Fournisseur C,3,"60,00","0,45"
P-0011,Écrou,Fournisseur A,1,"0,80","0,01"
P-0012,Vis,Fournisseur A,1,"0,40","0,01"
`)

func TestDiscoverMESCSV(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 6, 9, 0, 0, 0, time.UTC))
	profile, err := DiscoverFromCSV(mesCSV, Options{Name: "MES_Extraction.csv", Clock: clock})
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	if profile.Rows != 10 {
		t.Errorf("Rows = %d, want 10", profile.Rows)
	}
	if profile.DiscoveredAt != "2025-11-06T09:00:00Z" {
		t.Errorf("DiscoveredAt = %q", profile.DiscoveredAt)
	}

	wantKinds := map[string]Kind{
		"Poste":             KindNumeric,
		"Nom":               KindText,
		"Date":              KindDate,
		"Heure Début":       KindTime,
		"Temps Réel":        KindTime,
		"Aléas Industriels": KindText,
		"Nombre pièces":     KindNumeric,
		"Contrôlé":          KindBool,
	}
	for name, want := range wantKinds {
		col, ok := profile.Column(name)
		if !ok {
			t.Fatalf("column %q missing from profile", name)
		}
		if col.Kind != want {
			t.Errorf("%s: kind = %s, want %s", name, col.Kind, want)
		}
	}

	incident, _ := profile.Column("Aléas Industriels")
	if incident.NullCount != 8 {
		t.Errorf("Aléas Industriels: NullCount = %d, want 8 (empty + N/A)", incident.NullCount)
	}

	nom, _ := profile.Column("Nom")
	if nom.Role != RoleDimension {
		t.Errorf("Nom should be a dimension, got %s", nom.Role)
	}
	pieces, _ := profile.Column("Nombre pièces")
	if pieces.Role != RoleMeasure {
		t.Errorf("Nombre pièces should be a measure, got %s", pieces.Role)
	}
	if pieces.Key != "nombre_pièces" {
		t.Errorf("Nombre pièces key = %q", pieces.Key)
	}
}

func TestDiscoverPLMCSV(t *testing.T) {
	profile, err := DiscoverFromCSV(plmCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	cost, _ := profile.Column("Coût achat pièce (€)")
	if cost.Kind != KindNumeric || cost.Role != RoleMeasure {
		t.Errorf("cost column = %s/%s, want numeric measure", cost.Kind, cost.Role)
	}

	code, _ := profile.Column("Code / Référence")
	if code.Role != RoleSkipped {
		t.Errorf("part code should be skipped as an identifier, got %s", code.Role)
	}

	assertContains(t, profile.Names(RoleDimension), "Fournisseur", "Fournisseur should be a dimension")
}

func TestDiscoverEmptyColumn(t *testing.T) {
	profile, err := Discover([]string{"A", "B"}, [][]string{{"1", ""}, {"2", "null"}})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	b, _ := profile.Column("B")
	if b.Role != RoleSkipped || b.NullCount != 2 {
		t.Errorf("B = %+v, want skipped with 2 nulls", b)
	}
}

func TestDiscoverNoHeaders(t *testing.T) {
	if _, err := Discover(nil, nil); err == nil {
		t.Error("expected an error for a header-less extract")
	}
}

func TestClassifyCodedNumericDimension(t *testing.T) {
	values := make([]string, 20)
	for i := range values {
		values[i] = []string{"1", "2", "3"}[i%3]
	}
	col := Column{Kind: KindNumeric, UniqueCount: 3}
	col.classifyRole(values, len(values))
	if col.Role != RoleDimension {
		t.Errorf("3 distinct integers over 20 rows should be a dimension, got %s", col.Role)
	}
}

func TestDetectKindThreshold(t *testing.T) {
	// 4 of 5 numeric → numeric; 3 of 5 → text
	if got := detectKind([]string{"1", "2", "3", "4", "x"}); got != KindNumeric {
		t.Errorf("4/5 numeric: got %s", got)
	}
	if got := detectKind([]string{"1", "2", "3", "x", "y"}); got != KindText {
		t.Errorf("3/5 numeric: got %s", got)
	}
	if got := detectKind([]string{"7"}); got != KindNumeric {
		t.Errorf("single numeric value: got %s", got)
	}
}

func TestConvert(t *testing.T) {
	if got := Convert(KindNumeric, " 12,5 "); got != 12.5 {
		t.Errorf("decimal comma: got %v", got)
	}
	if got := Convert(KindNumeric, "1,234.50"); got != 1234.5 {
		t.Errorf("thousands separator: got %v", got)
	}
	if got := Convert(KindNumeric, "abc"); got != "abc" {
		t.Errorf("misfit cell should stay text, got %v", got)
	}
	if got := Convert(KindTime, "08:30"); got != (table.TimeOfDay{Hour: 8, Minute: 30}) {
		t.Errorf("time of day: got %v", got)
	}
	if got := Convert(KindTime, "26:10:00"); got != "26:10:00" {
		t.Errorf("duration-like clock should stay text, got %v", got)
	}
	if got, ok := Convert(KindDate, "03/11/2025").(time.Time); !ok || !got.Equal(time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day-first date: got %v", got)
	}
	if got := Convert(KindBool, "Oui"); got != true {
		t.Errorf("bool: got %v", got)
	}
	if got := Convert(KindText, "N/A"); got != nil {
		t.Errorf("null marker: got %v", got)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Temps Réel":     "temps_réel",
		"tempsReel":      "temps_reel",
		"Nombre  pièces": "nombre_pièces",
		"Heure-Fin":      "heure_fin",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func assertContains(t *testing.T, slice []string, item, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			return
		}
	}
	t.Errorf("%s — %q not found in %v", msg, item, slice)
}
