package schemaconfig

// tomlTable maps [[tables]].
type tomlTable struct {
	Name       string             `toml:"name"`
	Comment    string             `toml:"comment"`
	Options    tomlTableOptions   `toml:"options"`
	Timestamps *tomlTimestamps    `toml:"timestamps"`
	Columns    []tomlColumn       `toml:"columns"`
	Constraints []tomlConstraint  `toml:"constraints"`
	Indexes    []tomlIndex        `toml:"indexes"`
}

// tomlTimestamps maps [tables.timestamps].
type tomlTimestamps struct {
	Enabled       bool   `toml:"enabled"`
	CreatedColumn string `toml:"created_column"`
	UpdatedColumn string `toml:"updated_column"`
}

// tomlTableOptions maps [tables.options] and its dialect sub-groups.
type tomlTableOptions struct {
	Tablespace string `toml:"tablespace"`

	MySQL      *tomlMySQLTableOptions      `toml:"mysql"`
	PostgreSQL *tomlPostgreSQLTableOptions `toml:"postgresql"`
	SQLite     *tomlSQLiteTableOptions     `toml:"sqlite"`
}

// tomlMySQLTableOptions maps [tables.options.mysql].
type tomlMySQLTableOptions struct {
	Engine       string `toml:"engine"`
	Charset      string `toml:"charset"`
	Collate      string `toml:"collate"`
	RowFormat    string `toml:"row_format"`
	Compression  string `toml:"compression"`
	Encryption   string `toml:"encryption"`
	KeyBlockSize uint64 `toml:"key_block_size"`
}

// tomlPostgreSQLTableOptions maps [tables.options.postgresql].
type tomlPostgreSQLTableOptions struct {
	Schema      string   `toml:"schema"`
	Unlogged    bool     `toml:"unlogged"`
	Fillfactor  int      `toml:"fillfactor"`
	PartitionBy string   `toml:"partition_by"`
	Inherits    []string `toml:"inherits"`
}

// tomlSQLiteTableOptions maps [tables.options.sqlite].
type tomlSQLiteTableOptions struct {
	WithoutRowid bool `toml:"without_rowid"`
	Strict       bool `toml:"strict"`
}

// tomlIndex maps [[tables.indexes]].
type tomlIndex struct {
	Name       string              `toml:"name"`
	Unique     bool                `toml:"unique"`
	Comment    string              `toml:"comment"`
	Type       string              `toml:"type"`
	Visibility string              `toml:"visibility"`
	Where      string              `toml:"where"`
	Language   string              `toml:"language"`
	Columns    []string            `toml:"columns"`
	ColumnDefs []tomlColumnIndex   `toml:"column_defs"`
}

// tomlColumnIndex maps [[tables.indexes.column_defs]].
type tomlColumnIndex struct {
	Name   string `toml:"name"`
	Length int    `toml:"length"`
	Order  string `toml:"order"`
}

// tomlConstraint maps [[tables.constraints]].
type tomlConstraint struct {
	Name              string   `toml:"name"`
	Type              string   `toml:"type"`
	Columns           []string `toml:"columns"`
	ReferencedTable   string   `toml:"referenced_table"`
	ReferencedColumns []string `toml:"referenced_columns"`
	OnDelete          string   `toml:"on_delete"`
	OnUpdate          string   `toml:"on_update"`
	CheckExpression   string   `toml:"check_expression"`
	Enforced          *bool    `toml:"enforced"`
}
