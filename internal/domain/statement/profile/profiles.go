package profile

import "github.com/brentcurtis76/casa-reconcile/pkg/money"

// registry is the closed set of supported bank exports. Order matters only
// for deterministic iteration; detection keeps the best score regardless.
var registry = []BankProfile{
	bancoChile,
	bancoEstado,
	santander,
	bci,
}

// Banco de Chile "cartola" export: a banner block with the bank name and
// account holder, then separate cargo/abono columns in CLP.
var bancoChile = newLayout(layout{
	id:             "bancochile",
	displayName:    "Banco de Chile",
	bannerKeywords: []string{"BANCO DE CHILE", "CARTOLA"},
	aliases: fieldAliases{
		date:        []string{"fecha"},
		description: []string{"descripción", "descripcion"},
		debit:       []string{"cargos (clp)", "cargos"},
		credit:      []string{"abonos (clp)", "abonos"},
		reference:   []string{"n° documento", "nº documento"},
	},
	dateLayouts: []string{"02/01/2006"},
	convention:  money.ConventionLatin,
})

// BancoEstado cartola: several metadata rows (account number, period) above
// the header, and dates emitted as DD/MM with no year.
var bancoEstado = newLayout(layout{
	id:             "bancoestado",
	displayName:    "BancoEstado",
	bannerKeywords: []string{"BANCOESTADO", "CUENTARUT", "CARTOLA"},
	aliases: fieldAliases{
		date:        []string{"fecha"},
		description: []string{"descripción", "descripcion", "detalle"},
		debit:       []string{"cheques y cargos", "cheques y otros cargos"},
		credit:      []string{"depósitos y abonos", "depositos y abonos", "depósitos y abono"},
		reference:   []string{"n° operación", "nº operación", "n° operacion"},
	},
	dateLayouts: []string{"02/01/2006"},
	convention:  money.ConventionLatin,
	yearless:    true,
})

// Santander Chile: a single signed MONTO column and dash-separated dates.
var santander = newLayout(layout{
	id:             "santander",
	displayName:    "Santander Chile",
	bannerKeywords: []string{"SANTANDER", "MOVIMIENTOS"},
	aliases: fieldAliases{
		date:        []string{"fecha"},
		description: []string{"detalle", "descripción", "descripcion"},
		amount:      []string{"monto", "monto ($)"},
		reference:   []string{"n° documento", "nº documento"},
	},
	dateLayouts: []string{"02-01-2006"},
	convention:  money.ConventionLatin,
})

// BCI: "Fecha Transacción" header with cargo/abono columns.
var bci = newLayout(layout{
	id:             "bci",
	displayName:    "BCI",
	bannerKeywords: []string{"BCI", "BANCO DE CRÉDITO E INVERSIONES"},
	aliases: fieldAliases{
		date:        []string{"fecha transacción", "fecha transaccion", "fecha"},
		description: []string{"descripción", "descripcion"},
		debit:       []string{"cargo", "cargos"},
		credit:      []string{"abono", "abonos"},
		reference:   []string{"n° documento", "nº documento"},
	},
	dateLayouts: []string{"02/01/2006"},
	convention:  money.ConventionLatin,
})
