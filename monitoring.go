package rowdb

// TableStats describes the storage used by a table. Small tables may live
// inline in their parent page and report no allocation of their own.
type TableStats struct {
	Rows      int
	DataSize  int64
	DataAlloc int64
}

// TableStats reports row count and storage use of tbl. For tables with
// duplicates every row counts separately.
func (tx *Tx) TableStats(tbl *TableName) (TableStats, error) {
	if err := tx.check(); err != nil {
		return TableStats{}, err
	}
	if err := tx.RefreshTable(tbl); err != nil {
		return TableStats{}, err
	}
	rs, err := tx.table(tbl)
	if err != nil {
		return TableStats{}, err
	}
	bs := rs.b.Stats()
	return TableStats{
		Rows:      bs.KeyN,
		DataSize:  bs.LeafInuse + bs.InlineInuse,
		DataAlloc: bs.TotalAlloc(),
	}, nil
}
