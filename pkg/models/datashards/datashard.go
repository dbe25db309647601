package datashards

import (
	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/qdb"
)

type DataShard struct {
	ID  string
	Cfg *config.ShardConnect
}

func NewDataShard(name string, cfg *config.ShardConnect) *DataShard {
	return &DataShard{
		ID:  name,
		Cfg: cfg,
	}
}

func DataShardFromDB(shard *qdb.Shard) *DataShard {
	return NewDataShard(shard.ID, &config.ShardConnect{Hosts: shard.Hosts})
}

func DataShardToDB(shard *DataShard) *qdb.Shard {
	var hosts []string
	if shard.Cfg != nil {
		hosts = shard.Cfg.Hosts
	}
	return qdb.NewShard(shard.ID, hosts)
}
