package domain

// NaturalKeyFields — поля, по которым хранилище ищет дубликаты,
// в стабильном порядке для построения запроса.
var NaturalKeyFields = []string{
	"source_site", "make", "model", "year", "price", "mileage", "location",
}

// NaturalKey — приблизительный "отпечаток" объявления для дедупликации.
// Это не уникальный ключ БД: отсутствующие поля просто исключаются из
// сравнения, поэтому частичные ключи допустимы.
type NaturalKey map[string]interface{}

// NaturalKeyFromRaw строит ключ из сырого объявления. Отсутствующие поля
// не попадают в ключ — именно так, не "ужесточать": исходная система
// опирается на частичные ключи, когда опциональные поля пустые.
func NaturalKeyFromRaw(raw RawCarData, siteName string) NaturalKey {
	key := NaturalKey{}

	for _, field := range NaturalKeyFields {
		if v, ok := raw[field]; ok && v != nil {
			key[field] = v
		}
	}

	if _, ok := key["source_site"]; !ok && siteName != "" {
		key["source_site"] = siteName
	}

	return key
}
