package constants

// Базовые адреса сайтов-источников и справочника марок
const (
	AutoRiaBaseURL   = "https://auto.ria.com"
	AutoBazarBaseURL = "https://avtobazar.ua"

	// Справочный API NHTSA с полным каталогом марок
	NHTSAMakesURL = "https://vpic.nhtsa.dot.gov/api/vehicles/GetAllMakes?format=json"
)
