package adapters

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/builders"
)

// Register client
func init() {
	_ = register(&MySQL{}, "mysql")
}

var _ Adapter = (*MySQL)(nil)

type MySQL struct{}

// Open accepts either a go-sql-driver DSN in URL or the individual
// connection fields.
func (m *MySQL) Open(params *core.ConnectionParams) (*sql.DB, error) {
	cfg, err := mysqlConfig(params)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mysql database: %w", err)
	}

	return sql.OpenDB(connector), nil
}

func mysqlConfig(params *core.ConnectionParams) (*mysql.Config, error) {
	var cfg *mysql.Config
	if params.URL != "" {
		parsed, err := mysql.ParseDSN(params.URL)
		if err != nil {
			return nil, fmt.Errorf("could not parse db connection string: %w", err)
		}
		cfg = parsed
	} else {
		cfg = mysql.NewConfig()
		cfg.User = params.User
		cfg.Passwd = params.Password
		cfg.Net = "tcp"
		cfg.Addr = params.HostPort()
		cfg.DBName = params.Database
	}

	cfg.ParseTime = true
	return cfg, nil
}

// TypeProcessors: the text protocol returns every value as bytes, numbers
// are parsed back so they are encoded like on every other backend.
func (*MySQL) TypeProcessors() []builders.ClientOption {
	opts := []builders.ClientOption{
		builders.WithCustomTypeProcessor("double", mysqlFloat),
		builders.WithCustomTypeProcessor("float", mysqlFloat),
		// BIT(n) is a bit field sent as big endian bytes
		builders.WithCustomTypeProcessor("bit", mysqlBit),
		builders.WithCustomTypeName("bit", mysqlBitType),
	}

	for _, typ := range []string{"tinyint", "smallint", "mediumint", "int", "bigint", "year"} {
		opts = append(opts,
			builders.WithCustomTypeProcessor(typ, mysqlInt),
			builders.WithCustomTypeProcessor("unsigned "+typ, mysqlUint),
		)
	}

	for _, typ := range []string{"binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob"} {
		opts = append(opts, builders.WithCustomTypeProcessor(typ, builders.KeepBytes))
	}

	return opts
}

func (*MySQL) ColumnsQuery() string {
	return "SELECT column_name, column_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = '%s' ORDER BY ordinal_position"
}

func mysqlInt(v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return string(b)
	}
	return i
}

func mysqlUint(v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	u, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return string(b)
	}
	return u
}

const mysqlBitType = "UNSIGNED BIT"

func mysqlBit(v any) any {
	b, ok := v.([]byte)
	if !ok || len(b) > 8 {
		return v
	}
	var u uint64
	for _, octet := range b {
		u = u<<8 | uint64(octet)
	}
	return u
}

func mysqlFloat(v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return string(b)
	}
	return f
}
