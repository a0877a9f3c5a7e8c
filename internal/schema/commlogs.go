package schema

func init() {
	Register(Target{
		Key:   "communication_logs",
		Label: "Communication Logs",
		Fields: []FieldDefinition{
			{
				Name:     "contactEmail",
				Label:    "Contact Email",
				Type:     FieldEmail,
				Required: true,
				Aliases:  []string{"contact email", "email", "e-mail", "client email", "customer email"},
			},
			{
				Name:       "channel",
				Label:      "Channel",
				Type:       FieldEnum,
				Required:   true,
				EnumValues: []string{"call", "email", "sms", "meeting", "voicemail"},
				Aliases:    []string{"channel", "type", "communication type", "contact method", "medium"},
			},
			{
				Name:       "direction",
				Label:      "Direction",
				Type:       FieldEnum,
				EnumValues: []string{"inbound", "outbound"},
				Aliases:    []string{"direction", "in/out", "inbound/outbound"},
			},
			{
				Name:     "occurredAt",
				Label:    "Date",
				Type:     FieldDate,
				Required: true,
				Aliases:  []string{"date", "occurred at", "contact date", "call date", "timestamp", "when"},
			},
			{
				Name:    "durationMinutes",
				Label:   "Duration (Minutes)",
				Type:    FieldNumber,
				Aliases: []string{"duration", "duration minutes", "length", "call length", "minutes"},
			},
			{
				Name:    "subject",
				Label:   "Subject",
				Type:    FieldString,
				Aliases: []string{"subject", "topic", "regarding", "re"},
			},
			{
				Name:    "summary",
				Label:   "Summary",
				Type:    FieldString,
				Aliases: []string{"summary", "notes", "description", "details", "body"},
			},
			{
				Name:    "loggedBy",
				Label:   "Logged By",
				Type:    FieldString,
				Aliases: []string{"logged by", "agent", "rep", "user", "recorded by"},
			},
			{
				Name:    "followUpRequired",
				Label:   "Follow-up Required",
				Type:    FieldBoolean,
				Aliases: []string{"follow up", "follow-up required", "needs follow up", "followup"},
			},
			{
				Name:    "followUpDate",
				Label:   "Follow-up Date",
				Type:    FieldDate,
				Aliases: []string{"follow up date", "follow-up date", "next contact"},
			},
		},
	})
}
