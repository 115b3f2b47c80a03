// Package testutil provides a throwaway SQLite copy of the transit schema
// for package tests.
package testutil

import (
	"context"
	"testing"

	"transit-backend/internal/config"
	"transit-backend/internal/store"
)

// Schema mirrors the production MySQL tables closely enough for the API.
// Dates are TEXT so values come back exactly as written, like the MySQL
// driver with parseTime=false.
var Schema = []string{
	`CREATE TABLE zone (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zona_kod TEXT NOT NULL UNIQUE,
		zona_naziv TEXT,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE vozila (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tip_vozila TEXT,
		registarska_oznaka TEXT UNIQUE,
		u_prometu INTEGER NOT NULL DEFAULT 1,
		vrsta_goriva TEXT,
		kapacitet_putnika INTEGER
	)`,
	`CREATE TABLE linije (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		oznaka TEXT NOT NULL,
		naziv TEXT,
		tip_linije TEXT,
		duljina_km REAL
	)`,
	`CREATE TABLE stanice (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		naziv TEXT NOT NULL,
		zona_id INTEGER REFERENCES zone(id)
	)`,
	`CREATE TABLE zaposlenik (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zaposlenik_broj TEXT,
		ime TEXT NOT NULL,
		prezime TEXT NOT NULL,
		oib TEXT,
		email TEXT,
		naziv_uloge TEXT,
		datum_zaposlenja TEXT
	)`,
	`CREATE TABLE kalendari (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kalendar_naziv TEXT NOT NULL,
		ponedjeljak INTEGER DEFAULT 0,
		utorak INTEGER DEFAULT 0,
		srijeda INTEGER DEFAULT 0,
		cetvrtak INTEGER DEFAULT 0,
		petak INTEGER DEFAULT 0,
		subota INTEGER DEFAULT 0,
		nedjelja INTEGER DEFAULT 0
	)`,
	`CREATE TABLE vozni_red (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		linija_id INTEGER REFERENCES linije(id),
		vozilo_id INTEGER REFERENCES vozila(id),
		vozac_id INTEGER REFERENCES zaposlenik(id),
		kalendar_id INTEGER REFERENCES kalendari(id),
		vrijeme_polaska TEXT
	)`,
	`CREATE TABLE linije_stanice (
		linija_id INTEGER NOT NULL REFERENCES linije(id),
		stanica_id INTEGER NOT NULL REFERENCES stanice(id),
		redoslijed INTEGER NOT NULL,
		PRIMARY KEY (linija_id, stanica_id)
	)`,
	`CREATE TABLE kategorija_putnik (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kategorija_naziv TEXT,
		kategorija_kod TEXT,
		min_dob INTEGER,
		max_dob INTEGER,
		postotak_popusta REAL
	)`,
	`CREATE TABLE korisnici (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kategorija_id INTEGER REFERENCES kategorija_putnik(id),
		ime TEXT,
		prezime TEXT,
		email TEXT,
		datum_rodenja TEXT,
		status_racuna TEXT
	)`,
	`CREATE TABLE tip_karte (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tip_naziv TEXT,
		tip_kod TEXT,
		osnovna_cijena REAL,
		trajanje_minute INTEGER
	)`,
	`CREATE TABLE karta (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tip_karte_id INTEGER REFERENCES tip_karte(id),
		korisnik_id INTEGER REFERENCES korisnici(id),
		karta_kod TEXT,
		datum_kupnje TEXT,
		vrijedi_do TEXT,
		placena_cijena REAL
	)`,
	`CREATE TABLE prekrsaji (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		korisnik_id INTEGER REFERENCES korisnici(id),
		zaposlenik_id INTEGER REFERENCES zaposlenik(id),
		datum_prekrsaja TEXT,
		iznos_kazne REAL,
		status_placanja TEXT,
		napomena TEXT
	)`,
	`CREATE TABLE odrzavanje_vozila (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vozilo_id INTEGER REFERENCES vozila(id),
		zaposlenik_id INTEGER REFERENCES zaposlenik(id),
		datum_servisa TEXT,
		vrsta_servisa TEXT,
		trosak_servisa REAL,
		opis_radova TEXT
	)`,
	`CREATE TABLE prituzbe (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		korisnik_id INTEGER REFERENCES korisnici(id),
		linija_id INTEGER REFERENCES linije(id),
		datum_prituzbe TEXT,
		kategorija_prituzbe TEXT,
		tekst_prituzbe TEXT,
		status_rjesavanja TEXT
	)`,
}

// Fixtures is a small, consistent data set. Ids are explicit so tests can
// refer to them.
var Fixtures = []string{
	`INSERT INTO zone (id, zona_kod, zona_naziv) VALUES (1, 'A', 'Centar'), (2, 'B', 'Predgrađe')`,
	`INSERT INTO stanice (id, naziv, zona_id) VALUES (1, 'Glavni kolodvor', 1), (2, 'Trg bana Jelačića', 1), (3, 'Dubrava', 2)`,
	`INSERT INTO linije (id, oznaka, naziv, tip_linije, duljina_km) VALUES
		(1, '14', 'Mihaljevac - Zapruđe', 'Tramvaj', 12.5),
		(2, '6', 'Černomerec - Sopot', 'Tramvaj', 10.2),
		(3, '268', 'Kolodvor - Velika Gorica', 'Autobus', 18.0)`,
	`INSERT INTO vozila (id, tip_vozila, registarska_oznaka, u_prometu, vrsta_goriva, kapacitet_putnika) VALUES
		(1, 'Tramvaj', 'ZG-T-001', 1, 'Električna energija', 200),
		(2, 'Autobus', 'ZG-1234-AB', 1, 'Dizel', 90),
		(3, 'Autobus', 'ZG-5678-CD', 0, 'Dizel', 90)`,
	`INSERT INTO kalendari (id, kalendar_naziv, ponedjeljak, utorak, srijeda, cetvrtak, petak, subota, nedjelja) VALUES
		(1, 'Radni dan', 1, 1, 1, 1, 1, 0, 0)`,
	`INSERT INTO zaposlenik (id, zaposlenik_broj, ime, prezime, oib, email, naziv_uloge, datum_zaposlenja) VALUES
		(1, 'Z001', 'Ivan', 'Horvat', '12345678901', 'ivan@zet.hr', 'Vozač', '2015-04-01'),
		(2, 'Z002', 'Marko', 'Babić', '12345678902', 'marko@zet.hr', 'Mehaničar', '2018-09-15'),
		(3, 'Z003', 'Petra', 'Anić', '12345678903', 'petra@zet.hr', 'Mehaničar', '2020-01-10')`,
	`INSERT INTO vozni_red (id, linija_id, vozilo_id, vozac_id, kalendar_id, vrijeme_polaska) VALUES
		(1, 1, 1, 1, 1, '06:15:00'),
		(2, 1, 1, 1, 1, '05:45:00')`,
	`INSERT INTO linije_stanice (linija_id, stanica_id, redoslijed) VALUES (1, 2, 2), (1, 1, 1), (2, 3, 1)`,
	`INSERT INTO kategorija_putnik (id, kategorija_naziv, kategorija_kod, min_dob, max_dob, postotak_popusta) VALUES
		(1, 'Umirovljenik', 'UMR', 65, 120, 50)`,
	`INSERT INTO korisnici (id, kategorija_id, ime, prezime, email, datum_rodenja, status_racuna) VALUES
		(1, 1, 'Ana', 'Kovač', 'ana@example.com', '1950-02-03', 'Aktivan'),
		(2, NULL, 'Luka', 'Perić', 'luka@example.com', '1990-07-21', 'Aktivan')`,
	`INSERT INTO tip_karte (id, tip_naziv, tip_kod, osnovna_cijena, trajanje_minute) VALUES
		(1, 'Pojedinačna', 'POJ', 0.53, 30), (2, 'Dnevna', 'DNV', 3.98, 1440)`,
	`INSERT INTO karta (id, tip_karte_id, korisnik_id, karta_kod, datum_kupnje, vrijedi_do, placena_cijena) VALUES
		(1, 1, 1, 'K-0001', '2024-03-01 08:00:00', '2024-03-01 08:30:00', 0.27),
		(2, 1, 2, 'K-0002', '2024-03-01 09:00:00', '2024-03-01 09:30:00', 0.53),
		(3, 2, 2, 'K-0003', '2024-03-02 07:00:00', '2024-03-03 07:00:00', 3.98)`,
	`INSERT INTO prekrsaji (id, korisnik_id, zaposlenik_id, datum_prekrsaja, iznos_kazne, status_placanja, napomena) VALUES
		(1, 2, 1, '2024-02-10 10:00:00', 40, 'Neplaćeno', 'Bez karte'),
		(2, 1, 1, '2024-03-05 12:30:00', 40, 'Plaćeno', NULL)`,
	`INSERT INTO odrzavanje_vozila (id, vozilo_id, zaposlenik_id, datum_servisa, vrsta_servisa, trosak_servisa, opis_radova) VALUES
		(1, 2, 2, '2024-01-15', 'Redovni', 250, 'Zamjena ulja'),
		(2, 3, 3, '2024-02-20', 'Popravak kvar', 1200, 'Kvar mjenjača')`,
	`INSERT INTO prituzbe (id, korisnik_id, linija_id, datum_prituzbe, kategorija_prituzbe, tekst_prituzbe, status_rjesavanja) VALUES
		(1, 1, 1, '2024-03-01 09:00:00', 'Kašnjenje', 'Tramvaj kasni 20 minuta', 'Novo'),
		(2, 2, 1, '2024-03-02 10:00:00', 'Čistoća', 'Prljavo vozilo', 'U obradi'),
		(3, 2, NULL, '2024-03-03 11:00:00', 'Kašnjenje', 'Autobus nije došao', 'Novo')`,
}

// OpenDB creates a fresh SQLite database with the transit schema in a temp
// directory. It is closed when the test ends.
func OpenDB(t testing.TB) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "transit"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)

	for _, ddl := range Schema {
		if _, err := s.DB.ExecContext(ctx, ddl); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return s
}

// SeededDB is OpenDB plus Fixtures.
func SeededDB(t testing.TB) *store.Store {
	t.Helper()
	s := OpenDB(t)
	for _, q := range Fixtures {
		if _, err := s.DB.ExecContext(context.Background(), q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}
