package schema

func init() {
	Register(Target{
		Key:   "work_orders",
		Label: "Work Orders",
		Fields: []FieldDefinition{
			{
				Name:     "name",
				Label:    "Work Order Name",
				Type:     FieldString,
				Required: true,
				Aliases:  []string{"work order", "work order name", "order name", "project", "project name", "job name", "title"},
			},
			{
				Name:    "description",
				Label:   "Description",
				Type:    FieldString,
				Aliases: []string{"description", "details", "scope", "scope of work"},
			},
			{
				Name:       "status",
				Label:      "Status",
				Type:       FieldEnum,
				EnumValues: []string{"open", "scheduled", "in_progress", "completed", "cancelled"},
				Aliases:    []string{"status", "order status", "job status"},
			},
			{
				Name:       "priority",
				Label:      "Priority",
				Type:       FieldEnum,
				EnumValues: []string{"low", "medium", "high", "urgent"},
				Aliases:    []string{"priority", "urgency", "severity"},
			},
			{
				Name:     "clientEmail",
				Label:    "Client Email",
				Type:     FieldEmail,
				Required: true,
				Aliases:  []string{"client email", "customer email", "email", "e-mail", "contact email"},
			},
			{
				Name:    "assignedTo",
				Label:   "Assigned To",
				Type:    FieldString,
				Aliases: []string{"assigned to", "assignee", "technician", "tech", "owner", "crew"},
			},
			{
				Name:    "scheduledDate",
				Label:   "Scheduled Date",
				Type:    FieldDate,
				Aliases: []string{"scheduled date", "schedule", "scheduled", "start date", "service date", "appointment date"},
			},
			{
				Name:    "completedDate",
				Label:   "Completed Date",
				Type:    FieldDate,
				Aliases: []string{"completed date", "completion date", "finished", "end date", "closed date"},
			},
			{
				Name:    "estimatedCost",
				Label:   "Estimated Cost",
				Type:    FieldCurrency,
				Aliases: []string{"estimated cost", "estimate", "quoted price", "quote", "budget"},
			},
			{
				Name:    "actualCost",
				Label:   "Actual Cost",
				Type:    FieldCurrency,
				Aliases: []string{"actual cost", "final cost", "total", "total cost", "amount", "invoice amount"},
			},
			{
				Name:    "laborHours",
				Label:   "Labor Hours",
				Type:    FieldNumber,
				Aliases: []string{"labor hours", "hours", "man hours", "time spent"},
			},
			{
				Name:    "billable",
				Label:   "Billable",
				Type:    FieldBoolean,
				Aliases: []string{"billable", "is billable", "chargeable"},
			},
			{
				Name:    "location.address",
				Label:   "Service Address",
				Type:    FieldString,
				Aliases: []string{"service address", "site address", "location", "address", "job site"},
			},
			{
				Name:    "location.city",
				Label:   "Service City",
				Type:    FieldString,
				Aliases: []string{"service city", "site city", "city"},
			},
		},
	})
}
