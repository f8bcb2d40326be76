package dialect

// TiDB piggybacks on the MySQL renderer, differing only in vector-column
// support. Carried for parity testing like MySQL.
type TiDB struct {
	*MySQL
}

func NewTiDBDialect() Dialect {
	return &TiDB{
		MySQL: NewMySQLDialect().(*MySQL),
	}
}

func (t *TiDB) SupportsVector() bool {
	return true
}
