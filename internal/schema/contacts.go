package schema

func init() {
	Register(Target{
		Key:   "contacts",
		Label: "Contacts",
		Fields: []FieldDefinition{
			{
				Name:     "displayName",
				Label:    "Display Name",
				Type:     FieldString,
				Required: true,
				Aliases:  []string{"client name", "name", "full name", "contact name", "display name", "customer name"},
			},
			{
				Name:    "firstName",
				Label:   "First Name",
				Type:    FieldString,
				Aliases: []string{"first name", "firstname", "first", "fname", "given name"},
			},
			{
				Name:    "lastName",
				Label:   "Last Name",
				Type:    FieldString,
				Aliases: []string{"last name", "lastname", "last", "lname", "surname", "family name"},
			},
			{
				Name:     "email",
				Label:    "Email",
				Type:     FieldEmail,
				Required: true,
				Aliases:  []string{"email", "e-mail", "email address", "e-mail address", "mail"},
			},
			{
				Name:    "phone",
				Label:   "Phone",
				Type:    FieldPhone,
				Aliases: []string{"phone", "phone number", "telephone", "mobile", "cell", "cell phone"},
			},
			{
				Name:    "company",
				Label:   "Company",
				Type:    FieldString,
				Aliases: []string{"company", "organization", "organisation", "business", "employer", "account name"},
			},
			{
				Name:    "jobTitle",
				Label:   "Job Title",
				Type:    FieldString,
				Aliases: []string{"job title", "title", "position", "role"},
			},
			{
				Name:    "address.street",
				Label:   "Street Address",
				Type:    FieldString,
				Aliases: []string{"street", "street address", "address", "address line 1", "addr1"},
			},
			{
				Name:    "address.city",
				Label:   "City",
				Type:    FieldString,
				Aliases: []string{"city", "town"},
			},
			{
				Name:    "address.state",
				Label:   "State",
				Type:    FieldString,
				Aliases: []string{"state", "province", "region"},
			},
			{
				Name:    "address.zip",
				Label:   "ZIP Code",
				Type:    FieldString,
				Aliases: []string{"zip", "zip code", "zipcode", "postal code", "postcode"},
			},
			{
				Name:       "status",
				Label:      "Status",
				Type:       FieldEnum,
				EnumValues: []string{"lead", "active", "inactive", "archived"},
				Aliases:    []string{"status", "contact status", "stage"},
			},
			{
				Name:    "dateAdded",
				Label:   "Date Added",
				Type:    FieldDate,
				Aliases: []string{"date added", "created", "created date", "added on", "signup date"},
			},
			{
				Name:    "notes",
				Label:   "Notes",
				Type:    FieldString,
				Aliases: []string{"notes", "note", "comments", "description", "remarks"},
			},
		},
	})
}
