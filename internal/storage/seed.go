package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

type seedRule struct {
	name     string
	main     string
	sub      string
	keywords []string
	priority int
}

// firstPassRules is the hand-authored starter rule set. A fresh database
// reproduces the original first-pass categorization behavior.
var firstPassRules = []seedRule{
	// Grooming Inventory
	{"Vet India Pharma", "Grooming Inventory", "Vet India Pharma (VIP)", []string{"VET INDIA", "PHARMACEUTICALS"}, 10},
	{"Nutan Medical", "Grooming Inventory", "Nutan Medical", []string{"NUTAN MEDICAL"}, 10},
	{"ABK Imports", "Grooming Inventory", "ABK Imports", []string{"ABK IMPORTS"}, 10},
	{"Amazon", "Grooming Inventory", "Amazon", []string{"AMAZON"}, 20},
	{"Pubscribe", "Grooming Inventory", "Pubscribe Enterprises", []string{"PUBSCRIBE"}, 15},
	{"Anasuya", "Grooming Inventory", "Anasuya Food Tech", []string{"ANASUYA"}, 15},

	// Vehicle Subscription
	{"Imobility", "Vehicle Subscription", "Imobility Subscription", []string{"IMOBILITI", "IMOBILITY"}, 10},

	// Fuel
	{"Fuel Pump", "Fuel", "Fuel - Diesel & Petrol", []string{"DEEPAKDIRECTORICICI"}, 15},
	{"Fuel Generic", "Fuel", "Fuel - Diesel & Petrol", []string{"PETROL", "DIESEL", "BPCL", "UFILL", "BP PETROL"}, 30},

	// Office Overhead
	{"Swiggy", "Office Overhead", "Swiggy", []string{"SWIGGY", "INSTAMART"}, 10},
	{"Water Tanker", "Office Overhead", "Water Tanker", []string{"TANKER", "WATER TANKER", "KRUPAKAR"}, 30},
	{"Milk", "Office Overhead", "Milk", []string{"MILK"}, 30},
	{"Garbage", "Office Overhead", "Garbage", []string{"GARBAGE"}, 30},
	{"Electrician", "Office Overhead", "Electrician", []string{"ELECTRICIAN", "ELECTRICAL"}, 30},
	{"Water Bill", "Office Overhead", "Water Bill", []string{"BILLDKHYDERABADMETRO", "HYDERABAD METRO"}, 40},

	// Electricity
	{"Electricity Bill", "Electricity maintance & Bill", "Electricity Bill", []string{"SOUTHERNPOWERDISTRIB"}, 20},

	// Telco/Internet
	{"Airtel", "Telephone & Internet", "Airtel Mobile and Internet", []string{"AIRTEL", "AIRTELIN", "WWW AIRTEL IN"}, 10},

	// Bank Charges
	{"IMPS P2P Fee", "Bank Charges", "Processing Fee", []string{"IMPS P2P", "MIR"}, 20},
	{"ATM/Withdr TDS", "Bank Charges", "Processing Fee", []string{"TDS CASH WITHDRAWAL"}, 20},

	// Petty Cash
	{"Petty Cash HIMA", "Petty Cash", "Petty Cash (Mobile Grooming)", []string{"HIMADIRECTOR"}, 20},

	// Loan EMI Payments
	{"Bajaj Finance", "Loan EMI Payments", "Bajaj Finance", []string{"BAJAJ FINANCE"}, 10},
	{"Godrej Finance", "Loan EMI Payments", "Godrej Finance", []string{"GODREJFINANCE"}, 10},
	{"UGRO Capital", "Loan EMI Payments", "UGRO CAPITAL", []string{"UGRO CAPITAL"}, 10},
	{"India Infoline", "Loan EMI Payments", "India Infoline Finance", []string{"INFOLINE"}, 10},
	{"Unity Small", "Loan EMI Payments", "Unity Small Finance", []string{"UNITY SMALL", "UNITYSMALL"}, 10},
	{"Shriram", "Loan EMI Payments", "Shriram Finance", []string{"SHRIRAM"}, 10},
	{"HDFC EMI (CHQ)", "Loan EMI Payments", "HDFC Loan EMI", []string{"EMI ", " CHQ S"}, 40},
	{"HandLoan Rao", "Loan EMI Payments", "Venkateswara Rao HandLoan", []string{"VENKATESWARA RAO"}, 10},
	{"HandLoan Sanjay", "Loan EMI Payments", "Sanjay Pan HandLoan", []string{"SANJAY PAN"}, 10},

	// Admin Expenses
	{"Slot Books", "Admin Expenses", "Slot Books", []string{"SLOT", "BOOKS"}, 25},
	{"Vet Doctor", "Admin Expenses", "Veterinary Doctor Charges", []string{"DRKARTHEEK", "VET", "DOCTOR", "KARTHEEK"}, 30},

	// Employee Welfare
	{"Hostel Fee", "Employee Welfare", "Hostel Fee for Employees", []string{"HOSTEL", "SRIPAL REDDY"}, 15},

	// Customer Refund
	{"Customer Refund", "Customer Refund", "Customer Refund of Slots", []string{"REFUND", "CUSTOMER", "SLOT"}, 25},

	// Repair & Maintenance
	{"Generator Oil", "Repari & Maintenance", "Generator Oil", []string{"GENERATOR OIL"}, 25},
	{"Plumbing", "Repari & Maintenance", "Plumbing Maintenance", []string{"PLUMBING", "MANOJ MALIK"}, 15},
	{"Water Wash", "Repari & Maintenance", "Water Wash", []string{"WATER WASH"}, 25},

	// Tax & Duties
	{"TDS Payment", "Tax & Duties", "TDS Payment", []string{"CBDT"}, 25},
	{"GST Payment", "Tax & Duties", "GST Payment", []string{"GST"}, 25},
	{"EPFO", "Tax & Duties", "EPFO", []string{"PSIVR"}, 15},
}

// firstPassSalaryNames maps salary sub-categories to employee names.
var firstPassSalaryNames = map[string][]string{
	"Back Office": {
		"DASARI VAMSHI", "DUSARI NARESH", "KARAN SINGH", "KOKI SRIHARI REDDY",
	},
	"Operations Team": {
		"ARJUN DR EMP", "BALAJI GR", "GARIKAPATI PRADEEP", "KARTHIK DR",
		"KOLIPAKA BALAKRISHNA", "MALLESHWARI", "NANDI GAMA SHIVA KUMAR",
		"NELOJEE SAI KUMAR", "P SHIVA KUMAR", "PALTYA RAMESH", "PINAPOTHU RAMU",
		"PRASAD DR", "RAJESH DR", "SABAVATH SHIVA", "SACHIN GAUR",
		"SALAVATH SRINU", "THAMMICHETTY KOTESH", "NABADWIP DEBBARMA",
	},
	"Customer Care": {
		"BOBBILI ARCHANA", "KASIMALLA VAMSHI VARDHAN", "SHAHEEDA", "YELIMALA PRAVEEN",
	},
}

// salarySubCategoryOrder keeps seeding deterministic.
var salarySubCategoryOrder = []string{"Back Office", "Operations Team", "Customer Care"}

// seedRules populates a fresh database with the starter rule set.
func seedRules(tx *sql.Tx) error {
	for _, r := range firstPassRules {
		keywords, err := json.Marshal(r.keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords for rule %q: %w", r.name, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO rules (name, priority, keywords, main_category, sub_category, is_active, created_by)
			VALUES (?, ?, ?, ?, ?, 1, 'user')
		`, r.name, r.priority, string(keywords), r.main, r.sub); err != nil {
			return fmt.Errorf("failed to seed rule %q: %w", r.name, err)
		}
	}

	for _, sub := range salarySubCategoryOrder {
		for _, name := range firstPassSalaryNames[sub] {
			if _, err := tx.Exec(`
				INSERT INTO salary_rules (employee_name, sub_category)
				VALUES (?, ?)
			`, name, sub); err != nil {
				return fmt.Errorf("failed to seed salary rule for %q: %w", name, err)
			}
		}
	}

	return nil
}
