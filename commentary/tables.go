package commentary

// Fixed string tables the templates draw from.

var teams = []string{
	"Estadio Azteca",
	"La Bombonera",
	"El Monumental",
	"Estadio Centenario",
	"Maracaná",
	"Estadio Nacional",
	"El Campín",
	"Estadio Cuscatlán",
	"Estadio Rommel Fernández",
	"Estadio Hernando Siles",
}

var players = []string{
	"Valdés",
	"Herrera",
	"Domínguez",
	"Quintero",
	"Salazar",
	"Mendoza",
	"Cárdenas",
	"Figueroa",
	"Ibarra",
	"Palacios",
	"Reyna",
	"Saravia",
	"Téllez",
	"Urrutia",
	"Zamora",
	"Del Valle",
}
