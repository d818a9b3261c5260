package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// QueryFields 提供资源/缓存键/命中状态字段，供查询缓存日志复用。
func QueryFields(resource, key string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"resource":  resource,
		"cache_key": key,
		"cache_hit": cacheHit,
	}
}

// MutationFields 提供变更操作字段；id 为 0 时表示集合级操作（如 create）。
func MutationFields(resource, op string, id int64) logrus.Fields {
	fields := logrus.Fields{
		"resource": resource,
		"op":       op,
	}
	if id > 0 {
		fields["id"] = id
	}
	return fields
}
