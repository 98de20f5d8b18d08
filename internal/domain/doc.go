// Package domain models veterinary clinics listed in the Barcelona open-data
// catalogue and the pure derivations built on top of them.
//
// # Data Source
//
// Establishments come from the Ajuntament de Barcelona CKAN datastore
// ("Llista d'equipaments d'animals i les plantes"). The feed is attribute
// oriented: an establishment appears as several rows sharing a register_id.
// The first row of a group carries the name, address and coordinates; other
// rows carry a single attribute name/value pair such as "Tel." → "93 123 45 67".
//
// An establishment is kept only when its primary row has no end_date and its
// name mentions veterinary services ("veterinari", "veterinary",
// "clínica vet", "clinica vet", case-insensitive).
//
// # Synthetic Attributes
//
// The feed has no ratings, prices, opening hours or spoken languages. These
// are synthesized from the establishment's register_id with [SeededRandom]:
//
//	rating         SeededRandom(id, 3.2, 5.0) rounded to one decimal
//	review count   SeededInt(id+"rc", 8, 320)
//	price tier     SeededInt(id+"pr", 1, 3)
//	saturday open  SeededRandom(id+"sat", 0, 1) > 0.3
//	sunday open    SeededRandom(id+"sun", 0, 1) > 0.8
//	lunch break    SeededRandom(id+"lunch", 0, 1) > 0.5
//	english        SeededRandom(id+"en", 0, 1) > 0.6
//	french         SeededRandom(id+"fr", 0, 1) > 0.85
//
// The hash is a 32-bit polynomial hash (multiplier 31, two's complement
// wraparound) over the UTF-16 code units of the seed. Changing it changes every
// derived value, so it must stay bit-for-bit stable.
//
// # Opening Hours
//
// A [Schedule] maps lower-case English day names to "H:MM-H:MM" ranges or nil
// for closed days. Ranges containing a lunch split ("9:00-13:30 / 16:00-20:00")
// do not have exactly two hyphen-separated parts and evaluate as closed; see
// [Evaluate].
package domain
