package parser

import (
	"testing"
)

func TestDetectBank(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"BBVA México, S.A. Estado de cuenta", BankBBVA},
		{"Banco Santander (México) S.A.", BankSantander},
		{"Estado de Cuenta BANORTE", BankBanorte},
		{"Citibanamex Cuenta Perfiles", BankBanamex},
		{"HSBC México", BankHSBC},
		{"Scotiabank Inverlat", BankScotiabank},
		{"Banco Inbursa", BankInbursa},
		{"Banco del Bajío", BankBanBajio},
		{"BanBajío Empresarial", BankBanBajio},
		{"Banca AFIRME", BankAfirme},
		{"Banregio", BankBanregio},
		{"BBVA ... SPEI ENVIADO BANORTE", BankBBVA},
		{"Some other bank", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DetectBank(tt.input); got != tt.expected {
				t.Errorf("DetectBank(%q): got %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindRFC(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"R.F.C. ABC010203XY1", "ABC010203XY1"},
		{"RFC: GODE561231GR8 CLIENTE", "GODE561231GR8"},
		{"no rfc here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FindRFC(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidCLABE(t *testing.T) {
	if !ValidCLABE("002010077777777771") {
		t.Error("expected valid CLABE")
	}
	if ValidCLABE("002010077777777772") {
		t.Error("expected invalid check digit")
	}
	if ValidCLABE("00201007777777777") {
		t.Error("expected invalid length")
	}
}

func TestFindCLABE(t *testing.T) {
	got := FindCLABE("Ref 002010077777777772 CLABE 002010077777777771")
	if got != "002010077777777771" {
		t.Errorf("got %q, want the CLABE with a valid check digit", got)
	}
	if got := FindCLABE("no clabe"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestFindAccountNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"No. de Cuenta: 0123456789", "0123456789"},
		{"CONTRATO 01234567890", "01234567890"},
		{"Account 1122334455 Branch", "1122334455"},
		{"Cuenta 12345", ""},
		{"no account here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FindAccountNumber(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFindPeriod(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Periodo: DEL 01/01/2025 AL 31/01/2025", "01/01/2025 - 31/01/2025"},
		{"PERÍODO 01-ENE-2025 al 31-ENE-2025", "01-ENE-2025 - 31-ENE-2025"},
		{"Periodo\nDEL 01/01/2025", ""},
		{"no period", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FindPeriod(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestReadCover(t *testing.T) {
	text := "BBVA MEXICO\nRFC ABC010203XY1\nNo. de Cuenta: 0123456789\nCLABE 002010077777777771\nPeriodo DEL 01/01/2025 AL 31/01/2025"
	got := ReadCover(text)
	want := CoverProfile{
		Bank:          BankBBVA,
		RFC:           "ABC010203XY1",
		CLABE:         "002010077777777771",
		AccountNumber: "0123456789",
		Period:        "01/01/2025 - 31/01/2025",
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
