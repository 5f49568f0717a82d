package core

func init() {
	RegisterEntity(Entity{
		Type:        Properties,
		Label:       "Properties",
		Path:        "/api/properties",
		LimitParam:  "per_page",
		ResponseKey: "properties",
		Permission:  "view_properties",
		WebPath:     "/properties/{id}",
	})
	RegisterEntity(Entity{
		Type:        Agents,
		Label:       "Agents",
		Path:        "/api/agents",
		LimitParam:  "limit",
		ResponseKey: "agents",
		Permission:  "view_agents",
		WebPath:     "/agents/{id}",
	})
	RegisterEntity(Entity{
		Type:        Managers,
		Label:       "Managers",
		Path:        "/api/managers",
		LimitParam:  "limit",
		ResponseKey: "managers",
		Permission:  "view_managers",
		WebPath:     "/managers/{id}",
	})
	RegisterEntity(Entity{
		Type:        Brokerages,
		Label:       "Brokerages",
		Path:        "/api/brokerages",
		LimitParam:  "limit",
		ResponseKey: "brokerages",
		Permission:  "view_brokerages",
		WebPath:     "/brokerages/{id}",
	})
	RegisterEntity(Entity{
		Type:        Estimates,
		Label:       "Estimates",
		Path:        "/api/estimates",
		LimitParam:  "limit",
		ResponseKey: "estimates",
		Permission:  "view_estimates",
		WebPath:     "/estimates/{id}",
	})
	RegisterEntity(Entity{
		Type:        Visits,
		Label:       "Visits",
		Path:        "/api/visits",
		LimitParam:  "limit",
		ResponseKey: "visits",
		Permission:  "view_visits",
		WebPath:     "/visits/{id}",
	})
	RegisterEntity(Entity{
		Type:        Admins,
		Label:       "Admins",
		Path:        "/api/users",
		LimitParam:  "per_page",
		ResponseKey: "users",
		FixedParams: map[string]string{"role": "Super Admin,Admin"},
		Permission:  "view_admins",
		WebPath:     "/admins/{id}",
	})
}
