package metadata

// Allowed values accepted by the ops status and maintenance endpoints. The
// generic CRUD surface stores whatever the admin UI sends for these columns.
var (
	ComplaintStatuses = []string{"Novo", "U obradi", "Riješeno", "Odbačeno"}
	FineStatuses      = []string{"Plaćeno", "Neplaćeno", "U postupku"}
	ServiceTypes      = []string{"Redovni", "Izvanredni", "Tehnički pregled", "Popravak kvar"}
)

// MechanicRole is the naziv_uloge value of employees who service vehicles.
const MechanicRole = "Mehaničar"

// LineStopsTable is the line/stop ordering relation.
const LineStopsTable = "linije_stanice"

func table(name string, columns, search []string) *TableDescriptor {
	return &TableDescriptor{
		Name:          name,
		PrimaryKey:    []string{"id"},
		Columns:       columns,
		SearchColumns: search,
	}
}

// TransitTables returns fresh descriptors for every administered table, in
// the order the admin UI lists them.
func TransitTables() []*TableDescriptor {
	return []*TableDescriptor{
		table("zone",
			[]string{"id", "zona_kod", "zona_naziv", "created_at"},
			[]string{"zona_kod", "zona_naziv"}),
		table("vozila",
			[]string{"id", "tip_vozila", "registarska_oznaka", "u_prometu", "vrsta_goriva", "kapacitet_putnika"},
			[]string{"tip_vozila", "registarska_oznaka", "vrsta_goriva"}),
		table("linije",
			[]string{"id", "oznaka", "naziv", "tip_linije", "duljina_km"},
			[]string{"oznaka", "naziv", "tip_linije"}),
		table("stanice",
			[]string{"id", "naziv", "zona_id"},
			[]string{"naziv"}),
		table("zaposlenik",
			[]string{"id", "zaposlenik_broj", "ime", "prezime", "oib", "email", "naziv_uloge", "datum_zaposlenja"},
			[]string{"zaposlenik_broj", "ime", "prezime", "email", "naziv_uloge", "oib"}),
		table("kalendari",
			[]string{"id", "kalendar_naziv", "ponedjeljak", "utorak", "srijeda", "cetvrtak", "petak", "subota", "nedjelja"},
			[]string{"kalendar_naziv"}),
		table("vozni_red",
			[]string{"id", "linija_id", "vozilo_id", "vozac_id", "kalendar_id", "vrijeme_polaska"},
			[]string{"vrijeme_polaska"}),
		table("kategorija_putnik",
			[]string{"id", "kategorija_naziv", "kategorija_kod", "min_dob", "max_dob", "postotak_popusta"},
			[]string{"kategorija_naziv", "kategorija_kod"}),
		table("korisnici",
			[]string{"id", "kategorija_id", "ime", "prezime", "email", "datum_rodenja", "status_racuna"},
			[]string{"ime", "prezime", "email", "status_racuna"}),
		table("tip_karte",
			[]string{"id", "tip_naziv", "tip_kod", "osnovna_cijena", "trajanje_minute"},
			[]string{"tip_naziv", "tip_kod"}),
		table("karta",
			[]string{"id", "tip_karte_id", "korisnik_id", "karta_kod", "datum_kupnje", "vrijedi_do", "placena_cijena"},
			[]string{"karta_kod"}),
		table("prekrsaji",
			[]string{"id", "korisnik_id", "zaposlenik_id", "datum_prekrsaja", "iznos_kazne", "status_placanja", "napomena"},
			[]string{"status_placanja"}),
		table("odrzavanje_vozila",
			[]string{"id", "vozilo_id", "zaposlenik_id", "datum_servisa", "vrsta_servisa", "trosak_servisa", "opis_radova"},
			[]string{"vrsta_servisa"}),
		table("prituzbe",
			[]string{"id", "korisnik_id", "linija_id", "datum_prituzbe", "kategorija_prituzbe", "tekst_prituzbe", "status_rjesavanja"},
			[]string{"kategorija_prituzbe", "status_rjesavanja"}),
	}
}

// LineStops describes linije_stanice, keyed by (linija_id, stanica_id).
func LineStops() *TableDescriptor {
	return &TableDescriptor{
		Name:       LineStopsTable,
		PrimaryKey: []string{"linija_id", "stanica_id"},
		Columns:    []string{"linija_id", "stanica_id", "redoslijed"},
	}
}
